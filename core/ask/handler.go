package ask

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/irsalhamdi/members-portal/api/middleware"
	"github.com/irsalhamdi/members-portal/api/web"
	"github.com/irsalhamdi/members-portal/api/weberr"
	"github.com/irsalhamdi/members-portal/validate"
	"github.com/sirupsen/logrus"
)

type Request struct {
	Question string `json:"question" validate:"required,max=4000"`
}

// decodeRequest rejects bodies where question is absent or not a string.
func decodeRequest(w http.ResponseWriter, r *http.Request) (Request, error) {
	var raw map[string]json.RawMessage
	if err := web.Decode(w, r, &raw); err != nil {
		return Request{}, fmt.Errorf("unable to decode payload: %w", err)
	}

	var req Request
	q, ok := raw["question"]
	if !ok {
		return req, errors.New("question is a required field")
	}
	if err := json.Unmarshal(q, &req.Question); err != nil {
		return req, errors.New("question must be a string")
	}
	req.Question = strings.TrimSpace(req.Question)

	if err := validate.Check(req); err != nil {
		return req, err
	}
	return req, nil
}

// HandleAsk streams the answer as chunked text/plain. Failures before the
// first fragment get a status code; later failures abort the connection
// so the client sees a truncated body instead of a clean end.
func HandleAsk(log logrus.FieldLogger, proxy *Proxy) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		req, err := decodeRequest(w, r)
		if err != nil {
			return weberr.BadRequest(err)
		}

		ans, err := proxy.Ask(ctx, req.Question)
		if err != nil {
			return upstream(err)
		}
		defer ans.Close()

		stream, err := web.NewTextStream(w)
		if err != nil {
			return err
		}

		log := log.WithField("req_id", middleware.ContextRequestID(ctx))
		fragments := 0
		for {
			frag, err := ans.Next()
			if errors.Is(err, io.EOF) {
				stream.Close()
				return nil
			}
			if err != nil {
				if ctx.Err() != nil {
					log.WithField("fragments", fragments).Info("ask: client went away")
					return nil
				}
				if !stream.Started() {
					return upstream(err)
				}
				log.WithFields(logrus.Fields{
					"fragments": fragments,
					"error":     err,
				}).Error("ask: stream failed")
				panic(http.ErrAbortHandler)
			}

			if err := stream.Write(frag); err != nil {
				log.WithField("error", err).Info("ask: writing fragment")
				return nil
			}
			fragments++
		}
	}
}

func upstream(err error) error {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return weberr.BadGateway(err, weberr.WithFields(map[string]interface{}{
			"endpoint": ue.Endpoint,
			"status":   ue.Status,
		}))
	}
	return fmt.Errorf("asking: %w", err)
}
