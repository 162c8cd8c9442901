package signaling

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// HTTPServer is an [Exchanger] that serves the offer over HTTP and accepts
// the answer from a POST request:
//
//	GET  /offer   — returns the serialized offer as text/plain
//	POST /answer  — body is the serialized answer
//
// The listener starts on SendOffer and shuts down once the answer has been
// received or the context is cancelled. Only the first non-blank answer is
// accepted; later posts get 409 Conflict.
type HTTPServer struct {
	// Addr is the TCP address to listen on, e.g. "127.0.0.1:9090".
	Addr string

	mu       sync.Mutex
	offer    string
	answerCh chan string
	srv      *http.Server
	lisAddr  string
}

// SendOffer implements [Exchanger]. Starts the HTTP listener and publishes
// the offer.
func (s *HTTPServer) SendOffer(_ context.Context, offer string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.srv != nil {
		return errors.New("signaling: http exchanger already started")
	}

	s.offer = offer
	s.answerCh = make(chan string, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /offer", s.handleOffer)
	mux.HandleFunc("POST /answer", s.handleAnswer)

	lis, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("signaling: listen %q: %w", s.Addr, err)
	}
	s.lisAddr = lis.Addr().String()
	s.srv = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := s.srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("signaling server error", "err", err)
		}
	}()

	slog.Info("signaling server listening", "addr", s.lisAddr)
	return nil
}

// ReceiveAnswer implements [Exchanger]. Blocks until an answer is posted or
// ctx is cancelled, then shuts the listener down.
func (s *HTTPServer) ReceiveAnswer(ctx context.Context) (string, error) {
	s.mu.Lock()
	ch := s.answerCh
	s.mu.Unlock()
	if ch == nil {
		return "", errors.New("signaling: ReceiveAnswer before SendOffer")
	}

	defer s.shutdown()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case answer := <-ch:
		return answer, nil
	}
}

// ListenAddr returns the bound listener address. Valid after SendOffer;
// useful when Addr was chosen with port 0.
func (s *HTTPServer) ListenAddr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lisAddr
}

func (s *HTTPServer) handleOffer(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	offer := s.offer
	s.mu.Unlock()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, offer)
}

func (s *HTTPServer) handleAnswer(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	answer := strings.TrimSpace(string(body))
	if answer == "" {
		http.Error(w, "empty answer", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	ch := s.answerCh
	s.mu.Unlock()

	select {
	case ch <- answer:
		w.WriteHeader(http.StatusOK)
	default:
		http.Error(w, "answer already received", http.StatusConflict)
	}
}

func (s *HTTPServer) shutdown() {
	s.mu.Lock()
	srv := s.srv
	s.mu.Unlock()
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Warn("signaling server shutdown error", "err", err)
	}
}
