// Package audio holds the device-independent pieces of live audio input:
// frames and buffers, the energy classifier, the frame queue that hands
// samples from a device callback thread to a node, and the stream handle
// that owns a device stream for one activation.
//
// Hardware access lives in the portaudio subpackage; audiotest provides a
// scripted stream for tests.
package audio
