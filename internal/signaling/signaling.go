// Package signaling carries the one-shot offer/answer exchange that
// bootstraps a session. The transport produces an opaque offer string; an
// [Exchanger] delivers it to the remote operator and blocks until the answer
// comes back.
//
// Two exchangers are provided: [Console] for the manual copy-paste flow and
// [HTTPServer] for browser-driven setups.
package signaling

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrEmptyAnswer is returned by ReceiveAnswer when the operator supplied an
// empty or whitespace-only answer. This aborts session startup.
var ErrEmptyAnswer = errors.New("signaling: empty answer")

// Exchanger abstracts the signal-exchange channel used to bootstrap a
// session: send one offer out, receive one answer back.
type Exchanger interface {
	// SendOffer delivers the serialized offer to the remote operator.
	SendOffer(ctx context.Context, offer string) error

	// ReceiveAnswer blocks until the operator supplies the answer, ctx is
	// cancelled, or the input is invalid. A blank answer yields
	// [ErrEmptyAnswer].
	ReceiveAnswer(ctx context.Context) (string, error)
}

// Console exchanges the offer and answer over a terminal: the offer is
// printed for manual transmission and the answer is read as a single line.
type Console struct {
	// In is the answer source. Typically os.Stdin.
	In io.Reader

	// Out receives the offer text and prompts. Typically os.Stdout.
	Out io.Writer
}

// SendOffer implements [Exchanger]. Prints the offer with copy-paste
// instructions.
func (c *Console) SendOffer(_ context.Context, offer string) error {
	_, err := fmt.Fprintf(c.Out, "Send this offer to the remote peer:\n\n%s\n\nPaste the answer below and press enter:\n", offer)
	if err != nil {
		return fmt.Errorf("signaling: write offer: %w", err)
	}
	return nil
}

// ReceiveAnswer implements [Exchanger]. It blocks on a line read; the read
// itself is not interruptible, so cancellation is only observed between the
// read completing and the result being returned.
func (c *Console) ReceiveAnswer(ctx context.Context) (string, error) {
	type lineResult struct {
		line string
		err  error
	}
	ch := make(chan lineResult, 1)
	go func() {
		r := bufio.NewReader(c.In)
		line, err := r.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			ch <- lineResult{err: fmt.Errorf("signaling: read answer: %w", err)}
			return
		}
		ch <- lineResult{line: line}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.err != nil {
			return "", res.err
		}
		answer := strings.TrimSpace(res.line)
		if answer == "" {
			return "", ErrEmptyAnswer
		}
		return answer, nil
	}
}
