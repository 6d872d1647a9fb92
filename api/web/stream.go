package web

import (
	"errors"
	"net/http"
)

// TextStream writes a chunked text/plain body, flushing after every
// fragment so the client sees each one as soon as it is produced.
type TextStream struct {
	w       http.ResponseWriter
	flusher http.Flusher
	started bool
}

func NewTextStream(w http.ResponseWriter) (*TextStream, error) {
	f, ok := w.(http.Flusher)
	if !ok {
		return nil, errors.New("response writer does not support flushing")
	}
	return &TextStream{w: w, flusher: f}, nil
}

// Started reports whether the status line has been sent.
func (s *TextStream) Started() bool { return s.started }

func (s *TextStream) Write(fragment string) error {
	if !s.started {
		s.w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		s.w.Header().Set("Cache-Control", "no-cache")
		s.w.Header().Set("X-Content-Type-Options", "nosniff")
		s.w.WriteHeader(http.StatusOK)
		s.started = true
	}

	if _, err := s.w.Write([]byte(fragment)); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// Close sends the headers for an empty answer.
func (s *TextStream) Close() {
	if s.started {
		return
	}
	s.w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	s.w.WriteHeader(http.StatusOK)
	s.started = true
	s.flusher.Flush()
}
