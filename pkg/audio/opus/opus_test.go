package opus

import (
	"testing"

	"github.com/MrWong99/tonecast/pkg/audio"
)

func TestEncodeProducesOpusPacket(t *testing.T) {
	enc := NewEncoder()
	format := audio.Format{SampleRate: 48000, Codec: audio.CodecOpus, Channels: 1}

	data, err := enc.Encode(make([]int16, format.FrameSize()), format)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(data) == 0 {
		t.Error("Encode returned an empty packet")
	}
}

func TestEncodeReusesEncoderForSameFormat(t *testing.T) {
	enc := NewEncoder()
	format := audio.Format{SampleRate: 48000, Codec: audio.CodecOpus, Channels: 1}
	samples := make([]int16, format.FrameSize())

	if _, err := enc.Encode(samples, format); err != nil {
		t.Fatalf("first Encode: %v", err)
	}
	first := enc.enc
	if _, err := enc.Encode(samples, format); err != nil {
		t.Fatalf("second Encode: %v", err)
	}
	if enc.enc != first {
		t.Error("encoder was rebuilt for an unchanged format")
	}

	// A format change forces a rebuild.
	stereo := audio.Format{SampleRate: 48000, Codec: audio.CodecOpus, Channels: 2}
	if _, err := enc.Encode(make([]int16, stereo.FrameSize()*2), stereo); err != nil {
		t.Fatalf("stereo Encode: %v", err)
	}
	if enc.enc == first {
		t.Error("encoder was not rebuilt after the format changed")
	}
}

func TestEncodeRejectsBadFormats(t *testing.T) {
	enc := NewEncoder()
	tests := []struct {
		name   string
		format audio.Format
	}{
		{"wrong codec", audio.Format{SampleRate: 48000, Codec: "pcmu", Channels: 1}},
		{"zero rate", audio.Format{Codec: audio.CodecOpus, Channels: 1}},
		{"zero channels", audio.Format{SampleRate: 48000, Codec: audio.CodecOpus}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := enc.Encode(make([]int16, 960), tt.format); err == nil {
				t.Errorf("Encode accepted %+v", tt.format)
			}
		})
	}
}
