// Package mock provides in-memory mock implementations of the
// [audio.Source] and [audio.Encoder] interfaces for use in unit tests.
//
// All mocks are safe for concurrent use. They record every method call so
// that tests can assert on call counts and arguments, and they expose
// exported fields that the test can set to control return values.
//
// Typical usage:
//
//	src := &mock.Source{}
//	gen, _ := tone.New(tone.Config{}, src)
//	// ... run ...
//	if got := len(src.SubmitCalls); got != 50 { ... }
package mock

import (
	"sync"
	"time"

	"github.com/MrWong99/tonecast/pkg/audio"
)

// ─── Source ───────────────────────────────────────────────────────────────────

// SubmitCall records the arguments of a single [Source.Submit] invocation.
type SubmitCall struct {
	// Samples is the raw PCM frame passed to Submit.
	Samples []int16
	// Duration is the duration argument passed to Submit.
	Duration time.Duration
}

// Source is a mock implementation of [audio.Source].
// Set the exported fields before use; inspect the Call* fields after.
type Source struct {
	mu sync.Mutex

	// SupportedFormatsResult is returned by SupportedFormats. Defaults to
	// a single-entry list with the package default format if left nil.
	SupportedFormatsResult []audio.Format

	// StopError is returned by Stop.
	StopError error

	// SetFormatCalls records the formats passed to SetFormat, in order.
	SetFormatCalls []audio.Format

	// SubmitCalls records all Submit invocations.
	SubmitCalls []SubmitCall

	// CallCountStart, CallCountStop, CallCountPause and CallCountResume
	// record how many times each lifecycle method was called.
	CallCountStart  int
	CallCountStop   int
	CallCountPause  int
	CallCountResume int

	// SampleCallback and ErrorCallback hold the most recently registered
	// callbacks. To simulate pipeline events in tests, call
	// [Source.EmitSample] and [Source.EmitError].
	SampleCallback func(audio.EncodedFrame)
	ErrorCallback  func(error)
}

// SupportedFormats implements [audio.Source].
func (s *Source) SupportedFormats() []audio.Format {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SupportedFormatsResult == nil {
		return []audio.Format{{
			SampleRate: audio.DefaultSampleRate,
			Codec:      audio.CodecOpus,
			Channels:   audio.DefaultChannels,
		}}
	}
	return s.SupportedFormatsResult
}

// SetFormat implements [audio.Source]. Records the format.
func (s *Source) SetFormat(format audio.Format) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SetFormatCalls = append(s.SetFormatCalls, format)
}

// Submit implements [audio.Source]. Records a copy of the samples.
func (s *Source) Submit(samples []int16, duration time.Duration) {
	cp := make([]int16, len(samples))
	copy(cp, samples)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SubmitCalls = append(s.SubmitCalls, SubmitCall{Samples: cp, Duration: duration})
}

// OnSample implements [audio.Source]. Stores the callback.
func (s *Source) OnSample(cb func(audio.EncodedFrame)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SampleCallback = cb
}

// OnError implements [audio.Source]. Stores the callback.
func (s *Source) OnError(cb func(error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ErrorCallback = cb
}

// Start implements [audio.Source].
func (s *Source) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CallCountStart++
	return nil
}

// Stop implements [audio.Source]. Returns StopError.
func (s *Source) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CallCountStop++
	return s.StopError
}

// Pause implements [audio.Source].
func (s *Source) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CallCountPause++
	return nil
}

// Resume implements [audio.Source].
func (s *Source) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CallCountResume++
	return nil
}

// EmitSample calls the registered sample callback with frame, if any.
func (s *Source) EmitSample(frame audio.EncodedFrame) {
	s.mu.Lock()
	cb := s.SampleCallback
	s.mu.Unlock()
	if cb != nil {
		cb(frame)
	}
}

// EmitError calls the registered error callback with err, if any.
func (s *Source) EmitError(err error) {
	s.mu.Lock()
	cb := s.ErrorCallback
	s.mu.Unlock()
	if cb != nil {
		cb(err)
	}
}

// ─── Encoder ──────────────────────────────────────────────────────────────────

// EncodeCall records the arguments of a single [Encoder.Encode] invocation.
type EncodeCall struct {
	// Samples is the PCM frame passed to Encode.
	Samples []int16
	// Format is the format argument passed to Encode.
	Format audio.Format
}

// Encoder is a mock implementation of [audio.Encoder].
type Encoder struct {
	mu sync.Mutex

	// EncodeResult is returned by Encode when EncodeError is nil.
	// Defaults to a single zero byte so callers see a non-empty packet.
	EncodeResult []byte

	// EncodeError is returned by Encode when non-nil.
	EncodeError error

	// EncodeCalls records all Encode invocations.
	EncodeCalls []EncodeCall
}

// Encode implements [audio.Encoder]. Records the call and returns
// EncodeResult / EncodeError.
func (e *Encoder) Encode(samples []int16, format audio.Format) ([]byte, error) {
	cp := make([]int16, len(samples))
	copy(cp, samples)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.EncodeCalls = append(e.EncodeCalls, EncodeCall{Samples: cp, Format: format})
	if e.EncodeError != nil {
		return nil, e.EncodeError
	}
	if e.EncodeResult == nil {
		return []byte{0}, nil
	}
	return e.EncodeResult, nil
}
