package ask

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// sseReader reads server-sent events one at a time.
type sseReader struct {
	br *bufio.Reader
}

func newSSEReader(r io.Reader) *sseReader {
	return &sseReader{br: bufio.NewReader(r)}
}

// next returns the next event name and its joined data lines. It returns
// io.EOF when the body ends between events.
func (s *sseReader) next() (string, string, error) {
	var (
		event     string
		dataLines []string
	)

	for {
		line, err := s.br.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			if errors.Is(err, io.EOF) && len(dataLines) > 0 {
				return event, strings.Join(dataLines, "\n"), nil
			}
			return "", "", err
		}
		line = strings.TrimRight(line, "\r\n")

		// Blank line ends event.
		if line == "" {
			if len(dataLines) == 0 {
				event = ""
				continue
			}
			return event, strings.Join(dataLines, "\n"), nil
		}

		// Comment.
		if strings.HasPrefix(line, ":") {
			continue
		}

		if strings.HasPrefix(line, "event:") {
			event = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			continue
		}

		if strings.HasPrefix(line, "data:") {
			dataLines = append(dataLines, strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		}
	}
}
