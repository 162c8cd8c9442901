// Package session orchestrates one streaming session: the offer/answer
// handshake, format negotiation, the generator lifecycle, and ordered
// teardown when the connection reaches a terminal state.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/tonecast/internal/observe"
	"github.com/MrWong99/tonecast/internal/signaling"
	"github.com/MrWong99/tonecast/pkg/audio"
	"github.com/MrWong99/tonecast/pkg/transport"
)

// ErrNoCompatibleCodec is returned by [Controller.Run] when the peer's
// negotiated format list contains no entry matching the required codec.
var ErrNoCompatibleCodec = errors.New("session: no compatible codec negotiated")

// ErrConnectionFailed is returned by [Controller.Run] when the transport
// reports a failed connection.
var ErrConnectionFailed = errors.New("session: connection failed")

// Producer is a background frame producer driven by the controller. Run
// blocks until ctx is cancelled and then returns ctx.Err(); that outcome is
// the expected termination path, not a failure.
type Producer interface {
	Run(ctx context.Context) error
}

// Config wires a [Controller] to its collaborators.
type Config struct {
	Transport transport.Transport
	Source    audio.Source
	Exchanger signaling.Exchanger
	Producer  Producer

	// RequiredCodec is the codec identifier negotiation must match.
	// Default: [audio.CodecOpus].
	RequiredCodec string

	// Metrics is optional; when nil no instruments are recorded.
	Metrics *observe.Metrics
}

// Controller runs the session state machine:
//
//	New → Connecting → Connected → {Disconnected | Failed | Closed}
//
// The three terminal states admit no further transitions; entering one
// executes teardown exactly once, in order: cancel producer → await producer
// → stop source → close transport.
type Controller struct {
	id        string
	transport transport.Transport
	source    audio.Source
	exchanger signaling.Exchanger
	producer  Producer
	codec     string
	metrics   *observe.Metrics

	mu           sync.Mutex
	state        transport.ConnectionState
	chosenFormat audio.Format
	negotiated   bool
	connected    bool
	genStarted   bool
	tornDown     bool
	cancelGen    context.CancelFunc
	genGroup     *errgroup.Group

	fatalOnce sync.Once
	fatalErr  error
	fatalCh   chan struct{}

	terminalOnce sync.Once
	terminalCh   chan struct{}

	teardownOnce sync.Once
}

// New creates a Controller in the New state.
func New(cfg Config) *Controller {
	codec := cfg.RequiredCodec
	if codec == "" {
		codec = audio.CodecOpus
	}
	return &Controller{
		id:         uuid.NewString(),
		transport:  cfg.Transport,
		source:     cfg.Source,
		exchanger:  cfg.Exchanger,
		producer:   cfg.Producer,
		codec:      codec,
		metrics:    cfg.Metrics,
		state:      transport.StateNew,
		fatalCh:    make(chan struct{}),
		terminalCh: make(chan struct{}),
	}
}

// State returns the controller's view of the connection state.
func (c *Controller) State() transport.ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Run drives the whole session: handshake, negotiation, streaming, and
// teardown. It blocks until the session ends — via a terminal connection
// state, a fatal startup/negotiation error, or ctx cancellation (the
// operator's stop signal) — and always leaves the transport closed and the
// producer joined before returning.
func (c *Controller) Run(ctx context.Context) error {
	log := slog.With("session_id", c.id)

	// Event wiring must precede the handshake: the transport may fire the
	// negotiated formats synchronously from SetRemoteDescription.
	c.source.OnSample(c.handleSample)
	c.source.OnError(c.handleEncodeError)
	c.transport.OnFormatsNegotiated(c.handleFormats)
	c.transport.OnConnectionStateChange(c.handleStateChange)

	if err := c.source.Start(); err != nil {
		c.teardown(transport.CloseStartupFailed, log)
		return fmt.Errorf("session: start source: %w", err)
	}

	if err := c.handshake(ctx, log); err != nil {
		c.teardown(transport.CloseStartupFailed, log)
		return err
	}

	select {
	case <-ctx.Done():
		log.Info("stop requested, ending session")
		c.teardown(transport.CloseSessionEnded, log)
		return nil
	case <-c.fatalCh:
		c.teardown(transport.CloseNoCompatibleCodec, log)
		return c.fatalErr
	case <-c.terminalCh:
		final := c.State()
		log.Info("connection reached terminal state", "state", final)
		c.teardown(transport.CloseSessionEnded, log)
		if final == transport.StateFailed {
			return ErrConnectionFailed
		}
		return nil
	}
}

// handshake performs the linear startup protocol: offer → local description
// → operator exchange → answer → remote description. Any failure aborts the
// session before it reaches Connected.
func (c *Controller) handshake(ctx context.Context, log *slog.Logger) error {
	offer, err := c.transport.CreateOffer(ctx)
	if err != nil {
		return fmt.Errorf("session: create offer: %w", err)
	}
	if err := c.transport.SetLocalDescription(offer); err != nil {
		return fmt.Errorf("session: set local description: %w", err)
	}

	c.setState(transport.StateConnecting)

	// The local description is re-read after it was applied so the
	// operator payload includes gathered connectivity candidates.
	if err := c.exchanger.SendOffer(ctx, c.transport.LocalDescription()); err != nil {
		return fmt.Errorf("session: send offer: %w", err)
	}

	log.Info("offer sent, waiting for answer")
	answer, err := c.exchanger.ReceiveAnswer(ctx)
	if err != nil {
		return fmt.Errorf("session: receive answer: %w", err)
	}

	if err := c.transport.SetRemoteDescription(answer); err != nil {
		return fmt.Errorf("session: set remote description: %w", err)
	}
	log.Info("remote description applied")
	return nil
}

// handleFormats reacts to the first formats-negotiated notification: pick
// the entry matching the required codec, apply it to the source exactly
// once, and permit the producer to start. No match is fatal to the session.
func (c *Controller) handleFormats(formats []audio.Format) {
	c.mu.Lock()
	if c.negotiated || c.tornDown {
		c.mu.Unlock()
		return
	}

	var chosen audio.Format
	found := false
	for _, f := range formats {
		if f.Codec == c.codec {
			chosen = f
			found = true
			break
		}
	}
	if !found {
		c.mu.Unlock()
		c.fail(fmt.Errorf("%w (offered %d formats, need %q)", ErrNoCompatibleCodec, len(formats), c.codec))
		return
	}

	c.negotiated = true
	c.chosenFormat = chosen
	c.mu.Unlock()

	slog.Info("audio format negotiated",
		"codec", chosen.Codec,
		"sample_rate", chosen.SampleRate,
		"channels", chosen.Channels,
		"session_id", c.id,
	)
	c.source.SetFormat(chosen)
	c.maybeStartProducer()
}

// handleStateChange tracks transport state transitions. Transitions are
// monotone with respect to terminality: once a terminal state is recorded,
// later notifications are ignored.
func (c *Controller) handleStateChange(state transport.ConnectionState) {
	if !c.setState(state) {
		return
	}
	slog.Debug("connection state", "state", state, "session_id", c.id)

	if state == transport.StateConnected {
		c.mu.Lock()
		c.connected = true
		c.mu.Unlock()
		c.maybeStartProducer()
	}
	if state.Terminal() {
		c.terminalOnce.Do(func() { close(c.terminalCh) })
	}
}

// setState records a transition and reports whether it was accepted.
func (c *Controller) setState(state transport.ConnectionState) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.Terminal() {
		return false
	}
	c.state = state
	return true
}

// maybeStartProducer spawns the producer once the session is both connected
// and format-negotiated. The producer gets its own cancellation context so
// teardown controls its lifetime independently of Run's ctx.
func (c *Controller) maybeStartProducer() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.negotiated || !c.connected || c.genStarted || c.tornDown {
		return
	}
	c.genStarted = true

	genCtx, cancel := context.WithCancel(context.Background())
	c.cancelGen = cancel
	c.genGroup = &errgroup.Group{}
	c.genGroup.Go(func() error {
		return c.producer.Run(genCtx)
	})
	slog.Info("generator started", "session_id", c.id)
}

// fail records the first fatal error and releases Run.
func (c *Controller) fail(err error) {
	c.fatalOnce.Do(func() {
		c.fatalErr = err
		close(c.fatalCh)
	})
}

// teardown ends the session exactly once, in this order: cancel the
// producer, await its completion (suppressing the expected cancellation
// outcome), stop the source, close the transport. The transport must not be
// closed while the producer can still submit frames, and the source must not
// be stopped with frames in flight — hence the fixed order.
func (c *Controller) teardown(reason transport.CloseReason, log *slog.Logger) {
	c.teardownOnce.Do(func() {
		// Latch before releasing any resources: transport callbacks can
		// still arrive on pion goroutines after this point, and none of
		// them may start the producer or resurrect the state machine.
		c.mu.Lock()
		c.tornDown = true
		if !c.state.Terminal() {
			c.state = transport.StateClosed
		}
		cancel := c.cancelGen
		group := c.genGroup
		c.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		if group != nil {
			if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
				log.Warn("generator exited abnormally", "err", err)
			}
		}

		if err := c.source.Stop(); err != nil {
			log.Warn("source stop error", "err", err)
		}
		if err := c.transport.Close(reason); err != nil {
			log.Warn("transport close error", "err", err)
		}
		log.Info("session torn down", "reason", reason)
	})
}

// handleSample forwards one encoded frame to the transport. It runs on the
// producer's goroutine, so transport latency directly delays the cadence.
func (c *Controller) handleSample(frame audio.EncodedFrame) {
	c.mu.Lock()
	format := c.chosenFormat
	c.mu.Unlock()

	if err := c.transport.SendAudio(format, frame); err != nil {
		slog.Warn("send audio failed", "err", err, "session_id", c.id)
		return
	}
	if c.metrics != nil {
		ctx := context.Background()
		c.metrics.FramesSent.Add(ctx, 1)
		c.metrics.BytesSent.Add(ctx, int64(len(frame.Data)))
	}
}

// handleEncodeError logs a dropped frame. Per-frame encode failures never
// escalate past the frame.
func (c *Controller) handleEncodeError(err error) {
	slog.Warn("frame dropped", "err", err, "session_id", c.id)
	if c.metrics != nil {
		c.metrics.EncodeErrors.Add(context.Background(), 1,
			metric.WithAttributes(attribute.String("stage", "encode")))
	}
}
