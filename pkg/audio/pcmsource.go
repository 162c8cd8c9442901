package audio

import (
	"fmt"
	"sync"
	"time"
)

// Compile-time interface assertion.
var _ Source = (*PCMSource)(nil)

// PCMSource is a [Source] backed by an [Encoder]. It holds the active
// [Format], encodes each submitted frame, and fans the result out to the
// registered callbacks. It has no device behind it, so the lifecycle methods
// are no-ops.
//
// PCMSource is safe for concurrent use by one producer and one controller
// goroutine.
type PCMSource struct {
	enc Encoder

	mu       sync.Mutex
	format   Format
	onSample func(EncodedFrame)
	onError  func(error)
}

// NewPCMSource creates a PCMSource using enc for compression. The active
// format starts as the default entry of [PCMSource.SupportedFormats].
func NewPCMSource(enc Encoder) *PCMSource {
	s := &PCMSource{enc: enc}
	s.format = s.SupportedFormats()[0]
	return s
}

// SupportedFormats implements [Source]. The default entry is mono Opus at
// 48 kHz; stereo Opus is offered as an alternative.
func (s *PCMSource) SupportedFormats() []Format {
	return []Format{
		{SampleRate: DefaultSampleRate, Codec: CodecOpus, Channels: DefaultChannels},
		{SampleRate: DefaultSampleRate, Codec: CodecOpus, Channels: 2},
	}
}

// SetFormat implements [Source]. The new format applies to the next Submit.
func (s *PCMSource) SetFormat(format Format) {
	s.mu.Lock()
	s.format = format
	s.mu.Unlock()
}

// Format returns the currently active format.
func (s *PCMSource) Format() Format {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.format
}

// Submit implements [Source]. The active format is read once per call, so a
// concurrent SetFormat takes effect on the next frame, never mid-encode.
func (s *PCMSource) Submit(samples []int16, duration time.Duration) {
	s.mu.Lock()
	format := s.format
	onSample := s.onSample
	onError := s.onError
	s.mu.Unlock()

	data, err := s.enc.Encode(samples, format)
	if err != nil {
		if onError != nil {
			onError(fmt.Errorf("audio: encode frame: %w", err))
		}
		return
	}
	if onSample != nil {
		onSample(EncodedFrame{Data: data, Duration: duration})
	}
}

// OnSample implements [Source].
func (s *PCMSource) OnSample(cb func(EncodedFrame)) {
	s.mu.Lock()
	s.onSample = cb
	s.mu.Unlock()
}

// OnError implements [Source].
func (s *PCMSource) OnError(cb func(error)) {
	s.mu.Lock()
	s.onError = cb
	s.mu.Unlock()
}

// Start implements [Source]. No-op: there is no device to open.
func (s *PCMSource) Start() error { return nil }

// Stop implements [Source]. No-op hook point; callers invoke it during
// teardown after the producer has been joined.
func (s *PCMSource) Stop() error { return nil }

// Pause implements [Source]. No-op.
func (s *PCMSource) Pause() error { return nil }

// Resume implements [Source]. No-op.
func (s *PCMSource) Resume() error { return nil }
