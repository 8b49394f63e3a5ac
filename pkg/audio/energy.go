package audio

// Energy is the mean squared amplitude of the frame. An empty frame has
// zero energy.
func Energy(f Frame) float64 {
	if len(f.Samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range f.Samples {
		v := float64(s)
		sum += v * v
	}
	return sum / float64(len(f.Samples))
}

// Classifier decides whether a frame contains the wake word.
type Classifier interface {
	Classify(f Frame) bool
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(Frame) bool

// Classify implements Classifier.
func (fn ClassifierFunc) Classify(f Frame) bool { return fn(f) }

// EnergyDetector reports a detection when a frame's energy is strictly
// above Threshold. It stands in for a real keyword model.
type EnergyDetector struct {
	Threshold float64
}

// Classify implements Classifier.
func (d EnergyDetector) Classify(f Frame) bool {
	return Energy(f) > d.Threshold
}

// Silent reports whether the frame's energy is strictly below threshold.
func Silent(f Frame, threshold float64) bool {
	return Energy(f) < threshold
}
