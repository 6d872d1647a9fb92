package ask

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Event kinds produced by a completion stream. Only KindTextDelta carries
// answer text; everything else is skipped.
const (
	KindTextDelta = "text_delta"
	KindStop      = "message_stop"
)

type Event struct {
	Kind string
	Text string
}

// Stream is an open completion. Recv returns io.EOF once the completion
// finished cleanly.
type Stream interface {
	Recv() (Event, error)
	Close() error
}

type Completer interface {
	Complete(ctx context.Context, system, question string) (Stream, error)
}

// UpstreamError reports a failed completion call.
type UpstreamError struct {
	Endpoint string
	Status   int
	Type     string
	Err      error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("completion %s: %v", e.Endpoint, e.Err)
	case e.Type != "":
		return fmt.Sprintf("completion %s: %s", e.Endpoint, e.Type)
	default:
		return fmt.Sprintf("completion %s: status %d", e.Endpoint, e.Status)
	}
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// LoadBook reads the reference text the proxy answers from.
func LoadBook(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading book: %w", err)
	}
	return string(b), nil
}

const systemPrompt = `You answer questions from members of a course. Answer only from the book below. If the book does not cover the question, say so.

<book>
%s
</book>`

// Proxy forwards member questions to the completer with the book as
// system context.
type Proxy struct {
	log       logrus.FieldLogger
	completer Completer
	system    string
}

func NewProxy(log logrus.FieldLogger, completer Completer, book string) *Proxy {
	return &Proxy{
		log:       log,
		completer: completer,
		system:    fmt.Sprintf(systemPrompt, strings.TrimSpace(book)),
	}
}

// Ask opens a completion for question. The answer is consumed fragment by
// fragment with Next and must be closed.
func (p *Proxy) Ask(ctx context.Context, question string) (*Answer, error) {
	s, err := p.completer.Complete(ctx, p.system, question)
	if err != nil {
		return nil, err
	}
	return &Answer{ctx: ctx, stream: s}, nil
}

type Answer struct {
	ctx    context.Context
	stream Stream
	done   bool
}

// Next returns the next text fragment. It returns io.EOF when the answer
// ended cleanly and any other error when it did not; after an error the
// answer is finished.
func (a *Answer) Next() (string, error) {
	if a.done {
		return "", io.EOF
	}

	for {
		if err := a.ctx.Err(); err != nil {
			a.finish()
			return "", err
		}

		ev, err := a.stream.Recv()
		if err != nil {
			a.finish()
			if errors.Is(err, io.EOF) {
				return "", io.EOF
			}
			if ctxErr := a.ctx.Err(); ctxErr != nil {
				return "", ctxErr
			}
			return "", err
		}

		if ev.Kind == KindTextDelta && ev.Text != "" {
			return ev.Text, nil
		}
	}
}

func (a *Answer) finish() {
	if a.done {
		return
	}
	a.done = true
	a.stream.Close()
}

// Close releases the upstream stream. It is safe to call more than once.
func (a *Answer) Close() error {
	if a.done {
		return nil
	}
	a.done = true
	return a.stream.Close()
}
