/*
Package audioflow implements microphone input as a flowgraph: a wake word
node that listens until it hears something, and a capture node that records
a fixed window once it has.

	opener, _ := portaudio.Initialize()
	defer opener.Close()

	flow, err := audioflow.NewAudioInputFlow(opener, audioflow.DefaultSettings())
	if err != nil {
	    return err
	}

	shared, err := flow.Run(flowgraph.NewContext(ctx), nil)
	data, _ := audioflow.AudioDataKey.Get(shared)

The flow routes:

	wake_word     --continue--> audio_capture
	wake_word     --listen----> wake_word       (listen window elapsed)
	audio_capture --continue--> END
	audio_capture --error-----> wake_word       (nothing recorded)

Each activation opens its own stream in Prepare and the engine closes it
after Finalize, so the two nodes never hold the device at the same time and
no frame crosses from one activation to the next.
*/
package audioflow
