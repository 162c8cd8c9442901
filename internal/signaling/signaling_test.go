package signaling

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestConsoleSendOfferPrintsOffer(t *testing.T) {
	var out bytes.Buffer
	c := &Console{In: strings.NewReader(""), Out: &out}

	if err := c.SendOffer(context.Background(), "OFFER-PAYLOAD"); err != nil {
		t.Fatalf("SendOffer: %v", err)
	}
	if !strings.Contains(out.String(), "OFFER-PAYLOAD") {
		t.Errorf("output %q does not contain the offer", out.String())
	}
}

func TestConsoleReceiveAnswerTrimsWhitespace(t *testing.T) {
	c := &Console{In: strings.NewReader("  the-answer \n"), Out: io.Discard}

	answer, err := c.ReceiveAnswer(context.Background())
	if err != nil {
		t.Fatalf("ReceiveAnswer: %v", err)
	}
	if answer != "the-answer" {
		t.Errorf("answer = %q, want %q", answer, "the-answer")
	}
}

func TestConsoleBlankAnswer(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty line", "\n"},
		{"whitespace only", "   \t \n"},
		{"immediate EOF", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Console{In: strings.NewReader(tt.input), Out: io.Discard}
			if _, err := c.ReceiveAnswer(context.Background()); !errors.Is(err, ErrEmptyAnswer) {
				t.Errorf("ReceiveAnswer = %v, want ErrEmptyAnswer", err)
			}
		})
	}
}

func TestConsoleReceiveAnswerHonoursCancellation(t *testing.T) {
	// A reader that never yields a line keeps the read goroutine parked.
	blocked, _ := io.Pipe()
	c := &Console{In: blocked, Out: io.Discard}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.ReceiveAnswer(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("ReceiveAnswer = %v, want context.Canceled", err)
	}
}

func TestHTTPServerExchange(t *testing.T) {
	s := &HTTPServer{Addr: "127.0.0.1:0"}
	ctx := context.Background()

	if err := s.SendOffer(ctx, "OFFER-PAYLOAD"); err != nil {
		t.Fatalf("SendOffer: %v", err)
	}
	base := "http://" + s.ListenAddr()

	resp, err := http.Get(base + "/offer")
	if err != nil {
		t.Fatalf("GET /offer: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /offer status = %d, want 200", resp.StatusCode)
	}
	if strings.TrimSpace(string(body)) != "OFFER-PAYLOAD" {
		t.Errorf("GET /offer body = %q, want the offer", body)
	}

	resp, err = http.Post(base+"/answer", "text/plain", strings.NewReader("ANSWER-PAYLOAD\n"))
	if err != nil {
		t.Fatalf("POST /answer: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST /answer status = %d, want 200", resp.StatusCode)
	}

	answer, err := s.ReceiveAnswer(ctx)
	if err != nil {
		t.Fatalf("ReceiveAnswer: %v", err)
	}
	if answer != "ANSWER-PAYLOAD" {
		t.Errorf("answer = %q, want %q", answer, "ANSWER-PAYLOAD")
	}
}

func TestHTTPServerRejectsBlankAndRepeatedAnswers(t *testing.T) {
	s := &HTTPServer{Addr: "127.0.0.1:0"}
	ctx := context.Background()

	if err := s.SendOffer(ctx, "offer"); err != nil {
		t.Fatalf("SendOffer: %v", err)
	}
	base := "http://" + s.ListenAddr()
	post := func(body string) int {
		t.Helper()
		resp, err := http.Post(base+"/answer", "text/plain", strings.NewReader(body))
		if err != nil {
			t.Fatalf("POST /answer: %v", err)
		}
		resp.Body.Close()
		return resp.StatusCode
	}

	if code := post("   \n"); code != http.StatusBadRequest {
		t.Errorf("blank answer status = %d, want 400", code)
	}
	if code := post("first"); code != http.StatusOK {
		t.Errorf("first answer status = %d, want 200", code)
	}
	if code := post("second"); code != http.StatusConflict {
		t.Errorf("second answer status = %d, want 409", code)
	}

	answer, err := s.ReceiveAnswer(ctx)
	if err != nil {
		t.Fatalf("ReceiveAnswer: %v", err)
	}
	if answer != "first" {
		t.Errorf("answer = %q, want the first accepted post", answer)
	}
}

func TestHTTPServerReceiveAnswerHonoursCancellation(t *testing.T) {
	s := &HTTPServer{Addr: "127.0.0.1:0"}
	if err := s.SendOffer(context.Background(), "offer"); err != nil {
		t.Fatalf("SendOffer: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := s.ReceiveAnswer(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("ReceiveAnswer = %v, want context.DeadlineExceeded", err)
	}
}

func TestHTTPServerReceiveBeforeSendFails(t *testing.T) {
	s := &HTTPServer{Addr: "127.0.0.1:0"}
	if _, err := s.ReceiveAnswer(context.Background()); err == nil {
		t.Error("ReceiveAnswer before SendOffer succeeded, want error")
	}
}
