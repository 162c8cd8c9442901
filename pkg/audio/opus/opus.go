// Package opus provides an [audio.Encoder] backed by layeh.com/gopus.
//
// A gopus encoder is created per (sample rate, channel count) pair and keeps
// internal codec state between frames, so the adapter caches the current
// encoder and rebuilds it only when the submitted format differs from the one
// the encoder was created with.
package opus

import (
	"fmt"

	"layeh.com/gopus"

	"github.com/MrWong99/tonecast/pkg/audio"
)

// maxFrameBytes is the output buffer ceiling handed to gopus per frame.
// A 20 ms Opus frame never comes close to this.
const maxFrameBytes = 4000

// Compile-time interface assertion.
var _ audio.Encoder = (*Encoder)(nil)

// Encoder encodes int16 PCM frames to Opus packets. It is not safe for
// concurrent use; the pipeline submits frames from a single producer
// goroutine.
type Encoder struct {
	enc        *gopus.Encoder
	sampleRate int
	channels   int
}

// NewEncoder creates an Encoder. The underlying gopus encoder is created
// lazily on the first Encode call, once the active format is known.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Encode implements [audio.Encoder]. samples must contain exactly
// format.FrameSize() samples per channel; gopus rejects other frame sizes.
func (e *Encoder) Encode(samples []int16, format audio.Format) ([]byte, error) {
	if format.Codec != audio.CodecOpus {
		return nil, fmt.Errorf("opus: unsupported codec %q", format.Codec)
	}
	if format.SampleRate <= 0 || format.Channels <= 0 {
		return nil, fmt.Errorf("opus: invalid format %d Hz / %d ch", format.SampleRate, format.Channels)
	}

	if e.enc == nil || e.sampleRate != format.SampleRate || e.channels != format.Channels {
		enc, err := gopus.NewEncoder(format.SampleRate, format.Channels, gopus.Audio)
		if err != nil {
			return nil, fmt.Errorf("opus: create encoder %d Hz / %d ch: %w", format.SampleRate, format.Channels, err)
		}
		e.enc = enc
		e.sampleRate = format.SampleRate
		e.channels = format.Channels
	}

	frameSize := len(samples) / format.Channels
	data, err := e.enc.Encode(samples, frameSize, maxFrameBytes)
	if err != nil {
		return nil, fmt.Errorf("opus: encode %d samples: %w", len(samples), err)
	}
	return data, nil
}
