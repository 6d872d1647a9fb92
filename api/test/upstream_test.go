package test

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/gorilla/mux"
	"github.com/irsalhamdi/members-portal/api/web"
)

type mockBunny struct {
	calls int32
	fail  atomic.Bool
}

func (m *mockBunny) handle() http.Handler {
	list := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&m.calls, 1)
		if m.fail.Load() || r.Header.Get("AccessKey") != "bunny-key" {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"Message":"library exploded"}`))
			return
		}

		page := map[string]any{
			"totalItems":   2,
			"currentPage":  1,
			"itemsPerPage": 100,
			"items": []map[string]any{
				{"guid": "v1", "title": "Welcome", "length": 120, "dateUploaded": "2024-05-01T10:00:00", "status": 4},
				{"guid": "v2", "title": "Budgeting", "length": 600, "dateUploaded": "2024-05-02T10:00:00", "status": 4},
			},
		}
		web.Respond(context.Background(), w, page, 200)
	})

	r := mux.NewRouter()
	r.Handle("/library/{library}/videos", list).Methods("GET")
	return r
}

// mockLLM streams "Hel", "lo" as text deltas. failMidStream replaces the
// end of the message with an error event.
type mockLLM struct {
	failMidStream atomic.Bool
}

func (m *mockLLM) handle() http.Handler {
	messages := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		f := w.(http.Flusher)

		send := func(event, data string) {
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
			f.Flush()
		}

		send("message_start", `{"type":"message_start","message":{"id":"msg_1"}}`)
		send("content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Hel"}}`)
		if m.failMidStream.Load() {
			send("error", `{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`)
			return
		}
		send("content_block_delta", `{"type":"content_block_delta","index":1,"delta":{"type":"input_json_delta","partial_json":"{}"}}`)
		send("content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"lo"}}`)
		send("message_stop", `{"type":"message_stop"}`)
	})

	r := mux.NewRouter()
	r.Handle("/v1/messages", messages).Methods("POST")
	return r
}
