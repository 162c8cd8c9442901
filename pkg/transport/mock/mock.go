// Package mock provides an in-memory mock implementation of the
// [transport.Transport] interface for use in unit tests.
//
// The mock records every method call so that tests can assert on call counts
// and ordering, exposes Result/Error fields to control return values, and
// offers Emit* helpers to simulate transport events.
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/tonecast/pkg/audio"
	"github.com/MrWong99/tonecast/pkg/transport"
)

// Compile-time interface assertion.
var _ transport.Transport = (*Transport)(nil)

// SendAudioCall records the arguments of a single SendAudio invocation.
type SendAudioCall struct {
	// Format is the format argument passed to SendAudio.
	Format audio.Format
	// Frame is the encoded frame passed to SendAudio.
	Frame audio.EncodedFrame
}

// Transport is a mock implementation of [transport.Transport].
// Set the exported Result/Error fields before use; inspect the recorded
// call fields after.
type Transport struct {
	mu sync.Mutex

	// OfferResult is returned by CreateOffer. Defaults to "mock-offer".
	OfferResult string

	// CreateOfferError, SetLocalError, SetRemoteError and SendAudioError
	// are returned by the corresponding methods when non-nil.
	CreateOfferError error
	SetLocalError    error
	SetRemoteError   error
	SendAudioError   error

	// CloseError is returned by the first Close call.
	CloseError error

	// CallCountCreateOffer records how many times CreateOffer was called.
	CallCountCreateOffer int

	// SetLocalCalls records the offers passed to SetLocalDescription.
	SetLocalCalls []string

	// SetRemoteCalls records the answers passed to SetRemoteDescription.
	SetRemoteCalls []string

	// SendAudioCalls records all SendAudio invocations.
	SendAudioCalls []SendAudioCall

	// CloseCalls records the reasons passed to Close, including repeated
	// calls (the mock does not deduplicate so tests can verify callers do).
	CloseCalls []transport.CloseReason

	// FormatsCallback and StateCallback hold the registered callbacks.
	FormatsCallback func([]audio.Format)
	StateCallback   func(transport.ConnectionState)
}

// CreateOffer implements [transport.Transport].
func (t *Transport) CreateOffer(_ context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.CallCountCreateOffer++
	if t.CreateOfferError != nil {
		return "", t.CreateOfferError
	}
	if t.OfferResult == "" {
		return "mock-offer", nil
	}
	return t.OfferResult, nil
}

// SetLocalDescription implements [transport.Transport].
func (t *Transport) SetLocalDescription(offer string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.SetLocalCalls = append(t.SetLocalCalls, offer)
	return t.SetLocalError
}

// LocalDescription implements [transport.Transport]. Returns the last offer
// passed to SetLocalDescription, or the offer result if none was set yet.
func (t *Transport) LocalDescription() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n := len(t.SetLocalCalls); n > 0 {
		return t.SetLocalCalls[n-1]
	}
	return t.OfferResult
}

// SetRemoteDescription implements [transport.Transport].
func (t *Transport) SetRemoteDescription(answer string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.SetRemoteCalls = append(t.SetRemoteCalls, answer)
	return t.SetRemoteError
}

// SendAudio implements [transport.Transport]. Records the call.
func (t *Transport) SendAudio(format audio.Format, frame audio.EncodedFrame) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.SendAudioCalls = append(t.SendAudioCalls, SendAudioCall{Format: format, Frame: frame})
	return t.SendAudioError
}

// OnFormatsNegotiated implements [transport.Transport].
func (t *Transport) OnFormatsNegotiated(cb func([]audio.Format)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.FormatsCallback = cb
}

// OnConnectionStateChange implements [transport.Transport].
func (t *Transport) OnConnectionStateChange(cb func(transport.ConnectionState)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.StateCallback = cb
}

// Close implements [transport.Transport]. Records every call.
func (t *Transport) Close(reason transport.CloseReason) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.CloseCalls = append(t.CloseCalls, reason)
	if len(t.CloseCalls) == 1 {
		return t.CloseError
	}
	return nil
}

// EmitFormats calls the registered formats-negotiated callback, if any.
func (t *Transport) EmitFormats(formats []audio.Format) {
	t.mu.Lock()
	cb := t.FormatsCallback
	t.mu.Unlock()
	if cb != nil {
		cb(formats)
	}
}

// EmitState calls the registered connection-state callback, if any.
func (t *Transport) EmitState(state transport.ConnectionState) {
	t.mu.Lock()
	cb := t.StateCallback
	t.mu.Unlock()
	if cb != nil {
		cb(state)
	}
}
