// Package transport defines the interface to the real-time transport layer
// that carries encoded audio to the remote peer, together with the
// connection-state model the session controller reacts to.
//
// The concrete WebRTC implementation lives in transport/webrtc; tests use
// transport/mock. The interface is intentionally narrow: offer/answer
// plumbing, one outbound audio path, and two event hooks.
package transport

import (
	"context"

	"github.com/MrWong99/tonecast/pkg/audio"
)

// ConnectionState enumerates the lifecycle states of a peer connection.
// Disconnected, Failed and Closed are terminal: once one of them is reached
// no further transition is valid.
type ConnectionState int

const (
	StateNew ConnectionState = iota
	StateConnecting
	StateConnected
	StateDisconnected
	StateFailed
	StateClosed
)

// String returns the human-readable name of the state.
func (s ConnectionState) String() string {
	switch s {
	case StateNew:
		return "new"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is permitted from s.
func (s ConnectionState) Terminal() bool {
	switch s {
	case StateDisconnected, StateFailed, StateClosed:
		return true
	}
	return false
}

// CloseReason tags a [Transport.Close] call with why the session ended.
type CloseReason string

const (
	// CloseSessionEnded is the normal teardown path: the operator stopped
	// the session or the peer went away.
	CloseSessionEnded CloseReason = "session-ended"

	// CloseStartupFailed marks an abort during the offer/answer handshake.
	CloseStartupFailed CloseReason = "startup-failed"

	// CloseNoCompatibleCodec marks an abort because format negotiation
	// produced no codec the pipeline can encode.
	CloseNoCompatibleCodec CloseReason = "no-compatible-codec"
)

// Transport is the session controller's view of the peer connection.
//
// Callback registration (OnFormatsNegotiated, OnConnectionStateChange) must
// happen before the handshake methods are called; callbacks may fire on an
// internal goroutine or synchronously from SetRemoteDescription.
//
// Implementations must be safe for concurrent use: SendAudio is called from
// the producer goroutine while Close may be called from the session
// goroutine.
type Transport interface {
	// CreateOffer builds the local session offer and returns its textual
	// form.
	CreateOffer(ctx context.Context) (string, error)

	// SetLocalDescription applies the offer previously returned by
	// CreateOffer. Implementations that gather connectivity candidates
	// block here until the local description is complete.
	SetLocalDescription(offer string) error

	// LocalDescription returns the current local description in textual
	// form. After SetLocalDescription it includes any gathered
	// connectivity candidates, so this — not the CreateOffer value — is
	// what gets handed to the operator.
	LocalDescription() string

	// SetRemoteDescription applies the peer's answer. On success the
	// formats-negotiated callback fires with the formats offered by the
	// answer.
	SetRemoteDescription(answer string) error

	// SendAudio transmits one encoded frame in the given format.
	SendAudio(format audio.Format, frame audio.EncodedFrame) error

	// OnFormatsNegotiated registers cb to receive the peer's proposed
	// audio formats once negotiation completes. Only one callback may be
	// registered; subsequent calls replace it.
	OnFormatsNegotiated(cb func([]audio.Format))

	// OnConnectionStateChange registers cb to receive connection-state
	// transitions. Same replacement semantics as OnFormatsNegotiated.
	OnConnectionStateChange(cb func(ConnectionState))

	// Close tears down the peer connection, recording reason. It is
	// idempotent; calls after the first are no-ops.
	Close(reason CloseReason) error
}
