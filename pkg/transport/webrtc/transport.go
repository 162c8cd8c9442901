// Package webrtc provides the [transport.Transport] implementation backed by
// pion/webrtc. It owns the peer connection, a single outbound Opus track,
// and the mapping from pion connection states onto the package transport
// state model.
//
// Offers and answers travel as base64-encoded JSON session descriptions so
// they survive copy-paste through the manual signaling path.
package webrtc

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/pion/sdp/v3"
	pion "github.com/pion/webrtc/v3"
	"github.com/pion/webrtc/v3/pkg/media"

	"github.com/MrWong99/tonecast/pkg/audio"
	"github.com/MrWong99/tonecast/pkg/transport"
)

// Compile-time interface assertion.
var _ transport.Transport = (*Transport)(nil)

// Config configures a [Transport].
type Config struct {
	// STUNServers are the STUN URLs used during ICE gathering.
	// Default: ["stun:stun.l.google.com:19302"].
	STUNServers []string
}

// Transport implements [transport.Transport] on a pion peer connection with
// one sendonly Opus track.
type Transport struct {
	pc    *pion.PeerConnection
	track *pion.TrackLocalStaticSample

	mu        sync.Mutex
	onFormats func([]audio.Format)
	onState   func(transport.ConnectionState)

	closeOnce sync.Once
	closeErr  error
}

// New creates the peer connection and attaches the outbound audio track.
func New(cfg Config) (*Transport, error) {
	if len(cfg.STUNServers) == 0 {
		cfg.STUNServers = []string{"stun:stun.l.google.com:19302"}
	}

	pc, err := pion.NewPeerConnection(pion.Configuration{
		ICEServers: []pion.ICEServer{{URLs: cfg.STUNServers}},
	})
	if err != nil {
		return nil, fmt.Errorf("webrtc: create peer connection: %w", err)
	}

	track, err := pion.NewTrackLocalStaticSample(
		pion.RTPCodecCapability{
			MimeType:  pion.MimeTypeOpus,
			ClockRate: uint32(audio.DefaultSampleRate),
			Channels:  2,
		},
		"audio", "tonecast",
	)
	if err != nil {
		pc.Close()
		return nil, fmt.Errorf("webrtc: create audio track: %w", err)
	}
	if _, err := pc.AddTrack(track); err != nil {
		pc.Close()
		return nil, fmt.Errorf("webrtc: add audio track: %w", err)
	}

	t := &Transport{pc: pc, track: track}

	pc.OnConnectionStateChange(func(s pion.PeerConnectionState) {
		state := mapState(s)
		slog.Debug("peer connection state changed", "state", state)
		t.mu.Lock()
		cb := t.onState
		t.mu.Unlock()
		if cb != nil {
			cb(state)
		}
	})

	return t, nil
}

// CreateOffer implements [transport.Transport].
func (t *Transport) CreateOffer(_ context.Context) (string, error) {
	offer, err := t.pc.CreateOffer(nil)
	if err != nil {
		return "", fmt.Errorf("webrtc: create offer: %w", err)
	}
	return encodeDescription(offer)
}

// SetLocalDescription implements [transport.Transport]. It blocks until ICE
// gathering completes so that [Transport.LocalDescription] afterwards
// carries the full candidate set (no trickle over the manual signaling
// path).
func (t *Transport) SetLocalDescription(offer string) error {
	desc, err := decodeDescription(offer)
	if err != nil {
		return fmt.Errorf("webrtc: decode offer: %w", err)
	}

	gathered := pion.GatheringCompletePromise(t.pc)
	if err := t.pc.SetLocalDescription(desc); err != nil {
		return fmt.Errorf("webrtc: set local description: %w", err)
	}
	<-gathered
	return nil
}

// LocalDescription implements [transport.Transport].
func (t *Transport) LocalDescription() string {
	desc := t.pc.LocalDescription()
	if desc == nil {
		return ""
	}
	s, err := encodeDescription(*desc)
	if err != nil {
		return ""
	}
	return s
}

// SetRemoteDescription implements [transport.Transport]. On success the
// formats-negotiated callback fires synchronously with the audio formats
// found in the answer.
func (t *Transport) SetRemoteDescription(answer string) error {
	desc, err := decodeDescription(answer)
	if err != nil {
		return fmt.Errorf("webrtc: decode answer: %w", err)
	}
	if err := t.pc.SetRemoteDescription(desc); err != nil {
		return fmt.Errorf("webrtc: set remote description: %w", err)
	}

	formats, err := negotiatedFormats(desc.SDP)
	if err != nil {
		return fmt.Errorf("webrtc: parse answer formats: %w", err)
	}

	t.mu.Lock()
	cb := t.onFormats
	t.mu.Unlock()
	if cb != nil {
		cb(formats)
	}
	return nil
}

// SendAudio implements [transport.Transport]. The format argument is carried
// for the interface's sake; the track codec was fixed at negotiation time.
func (t *Transport) SendAudio(_ audio.Format, frame audio.EncodedFrame) error {
	err := t.track.WriteSample(media.Sample{Data: frame.Data, Duration: frame.Duration})
	if err != nil {
		return fmt.Errorf("webrtc: write sample: %w", err)
	}
	return nil
}

// OnFormatsNegotiated implements [transport.Transport].
func (t *Transport) OnFormatsNegotiated(cb func([]audio.Format)) {
	t.mu.Lock()
	t.onFormats = cb
	t.mu.Unlock()
}

// OnConnectionStateChange implements [transport.Transport].
func (t *Transport) OnConnectionStateChange(cb func(transport.ConnectionState)) {
	t.mu.Lock()
	t.onState = cb
	t.mu.Unlock()
}

// Close implements [transport.Transport]. Idempotent.
func (t *Transport) Close(reason transport.CloseReason) error {
	t.closeOnce.Do(func() {
		slog.Info("closing peer connection", "reason", reason)
		if err := t.pc.Close(); err != nil {
			t.closeErr = fmt.Errorf("webrtc: close peer connection: %w", err)
		}
	})
	return t.closeErr
}

// mapState translates a pion connection state into the transport model.
func mapState(s pion.PeerConnectionState) transport.ConnectionState {
	switch s {
	case pion.PeerConnectionStateNew:
		return transport.StateNew
	case pion.PeerConnectionStateConnecting:
		return transport.StateConnecting
	case pion.PeerConnectionStateConnected:
		return transport.StateConnected
	case pion.PeerConnectionStateDisconnected:
		return transport.StateDisconnected
	case pion.PeerConnectionStateFailed:
		return transport.StateFailed
	case pion.PeerConnectionStateClosed:
		return transport.StateClosed
	default:
		return transport.StateNew
	}
}

// encodeDescription serialises a session description to base64 JSON for the
// copy-paste signaling path.
func encodeDescription(desc pion.SessionDescription) (string, error) {
	b, err := json.Marshal(desc)
	if err != nil {
		return "", fmt.Errorf("marshal session description: %w", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// decodeDescription reverses [encodeDescription].
func decodeDescription(s string) (pion.SessionDescription, error) {
	var desc pion.SessionDescription
	b, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return desc, fmt.Errorf("base64 decode session description: %w", err)
	}
	if err := json.Unmarshal(b, &desc); err != nil {
		return desc, fmt.Errorf("unmarshal session description: %w", err)
	}
	return desc, nil
}

// negotiatedFormats extracts the audio formats proposed by an SDP body.
// Each rtpmap entry of an audio media section ("opus/48000/2") becomes one
// [audio.Format]; entries without a channel count default to one channel.
func negotiatedFormats(raw string) ([]audio.Format, error) {
	var desc sdp.SessionDescription
	if err := desc.Unmarshal([]byte(raw)); err != nil {
		return nil, fmt.Errorf("unmarshal sdp: %w", err)
	}

	var formats []audio.Format
	for _, m := range desc.MediaDescriptions {
		if m.MediaName.Media != "audio" {
			continue
		}
		for _, attr := range m.Attributes {
			if attr.Key != "rtpmap" {
				continue
			}
			f, ok := parseRTPMap(attr.Value)
			if ok {
				formats = append(formats, f)
			}
		}
	}
	return formats, nil
}

// parseRTPMap parses an rtpmap attribute value of the form
// "111 opus/48000/2" into a Format.
func parseRTPMap(value string) (audio.Format, bool) {
	_, enc, ok := strings.Cut(value, " ")
	if !ok {
		return audio.Format{}, false
	}
	parts := strings.Split(enc, "/")
	if len(parts) < 2 {
		return audio.Format{}, false
	}
	rate, err := strconv.Atoi(parts[1])
	if err != nil {
		return audio.Format{}, false
	}
	channels := 1
	if len(parts) >= 3 {
		if ch, err := strconv.Atoi(parts[2]); err == nil {
			channels = ch
		}
	}
	return audio.Format{
		SampleRate: rate,
		Codec:      strings.ToLower(parts[0]),
		Channels:   channels,
	}, true
}
