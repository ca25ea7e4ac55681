package httpadapter

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// caseEvents streams item transitions for one case as server-sent events.
// The stream starts with a snapshot marker, then forwards live transitions
// until the client disconnects or the queue shuts down.
func (rt *Router) caseEvents(w http.ResponseWriter, r *http.Request, caseID string) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming not supported"})
		return
	}

	transitions, cancel := rt.events.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	snapshot, _ := json.Marshal(rt.status.Status(caseID))
	fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", snapshot)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case tr, open := <-transitions:
			if !open {
				return
			}
			if tr.CaseID != caseID {
				continue
			}
			payload, err := json.Marshal(tr)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: transition\ndata: %s\n\n", payload)
			flusher.Flush()
		}
	}
}
