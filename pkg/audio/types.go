package audio

import "time"

// Codec identifiers used in [Format.Codec].
const (
	// CodecOpus is the Opus codec identifier as it appears in SDP rtpmap
	// entries (lowercased).
	CodecOpus = "opus"
)

// Default audio parameters. WebRTC audio is Opus at 48 kHz; the pipeline
// produces mono PCM.
const (
	DefaultSampleRate = 48000
	DefaultChannels   = 1

	// FrameDuration is the fixed cadence of the pipeline: one frame every
	// 20 ms, i.e. SampleRate/50 samples per frame.
	FrameDuration = 20 * time.Millisecond

	// FramesPerSecond is the number of frames produced per second at the
	// fixed 20 ms cadence.
	FramesPerSecond = int(time.Second / FrameDuration)
)

// Format describes the negotiated parameters of an audio stream: sample rate
// in Hz, codec identifier, and channel count. Exactly one Format is active on
// a [Source] at any time.
type Format struct {
	SampleRate int
	Codec      string
	Channels   int
}

// FrameSize returns the number of samples per channel in one 20 ms frame at
// this format's sample rate.
func (f Format) FrameSize() int {
	return f.SampleRate / FramesPerSecond
}

// Frame is a single raw PCM frame: signed 16-bit samples plus the wall-clock
// duration they represent. The sample rate is implicit — it is whatever the
// producer was configured with.
type Frame struct {
	Samples  []int16
	Duration time.Duration
}

// EncodedFrame is the output of a codec: an opaque byte sequence tagged with
// the duration of the audio it encodes.
type EncodedFrame struct {
	Data     []byte
	Duration time.Duration
}
