// Package audio defines the types and interfaces for the tonecast audio
// pipeline, plus the concrete building blocks shared by all sources.
//
// The central abstraction is [Source]: a format-aware producer endpoint that
// accepts raw PCM frames, encodes them with the active [Format], and publishes
// the result through registered callbacks. The synthetic tone generator and
// any future real-device capture source are variants of the same contract.
//
// This package lives under pkg/ because external code (alternative sources,
// alternative transports) is expected to implement or consume [Source].
package audio

import "time"

// Encoder converts raw PCM samples into a codec's wire representation.
// Implementations are provided by codec adapter packages (e.g. audio/opus).
//
// Encode may fail per frame; a failed frame is dropped by the caller and the
// encoder must remain usable for subsequent frames.
type Encoder interface {
	// Encode compresses samples according to format. samples holds
	// interleaved int16 PCM with format.FrameSize() samples per channel.
	Encode(samples []int16, format Format) ([]byte, error)
}

// Source is the capability set of an audio frame source: format negotiation,
// frame submission, event publication, and lifecycle control.
//
// Implementations must be safe for concurrent use: Submit is called from the
// producer goroutine while SetFormat and the lifecycle methods are called
// from the session goroutine.
type Source interface {
	// SupportedFormats returns the formats this source can encode, in
	// preference order. The list is never empty; the first entry is the
	// documented default.
	SupportedFormats() []Format

	// SetFormat replaces the active format. The change takes effect on the
	// next submitted frame, never mid-encode. The value is not checked
	// against SupportedFormats — callers are expected to pass a negotiated
	// member of that list.
	SetFormat(format Format)

	// Submit encodes one raw frame with the active format. On success the
	// sample callback fires with the encoded bytes and duration; on encode
	// failure the error callback fires and the frame is dropped. Submit
	// always returns normally — per-frame failures never escalate to the
	// producer.
	Submit(samples []int16, duration time.Duration)

	// OnSample registers cb to receive each successfully encoded frame.
	// The callback runs synchronously on the submitting goroutine; a slow
	// callback delays the producer's cadence. Only one callback may be
	// registered; subsequent calls replace it.
	OnSample(cb func(EncodedFrame))

	// OnError registers cb to receive per-frame encode errors. Same
	// execution and replacement semantics as OnSample.
	OnError(cb func(error))

	// Start, Stop, Pause and Resume are lifecycle hooks. For sources
	// without a real device behind them they return immediately with nil.
	Start() error
	Stop() error
	Pause() error
	Resume() error
}
