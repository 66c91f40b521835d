package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/talgya/cromulant/internal/feed"
)

// catchUp is how many recent entries a new stream client receives.
const catchUp = 50

// heartbeatInterval keeps idle proxies from closing the stream.
var heartbeatInterval = 15 * time.Second

// handleStream provides an SSE endpoint for live feed entries, with a
// limit on concurrent connections.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	current := s.sseConns.Add(1)
	defer s.sseConns.Add(-1)
	if int(current) > s.Config.API.StreamConns {
		http.Error(w, "too many SSE connections", http.StatusServiceUnavailable)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	// SSE headers.
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	subID, ch := s.Feed.Subscribe()
	defer s.Feed.Unsubscribe(subID)

	filter := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("filter")))
	last := int64(0)
	for _, e := range s.Feed.Recent(catchUp, filter) {
		writeSSEEvent(w, e)
		last = e.ID
	}
	flusher.Flush()

	slog.Info("SSE client connected", "sub_id", subID)

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case e, ok := <-ch:
			if !ok {
				return
			}
			// Skip anything already sent in the catch-up.
			if e.ID <= last || (filter != "" && !e.Matches(filter)) {
				continue
			}
			writeSSEEvent(w, e)
			flusher.Flush()
		case <-heartbeat.C:
			fmt.Fprintf(w, ": heartbeat\n\n")
			flusher.Flush()
		case <-r.Context().Done():
			slog.Info("SSE client disconnected", "sub_id", subID)
			return
		}
	}
}

// writeSSEEvent writes a single entry in SSE format.
func writeSSEEvent(w http.ResponseWriter, e feed.Entry) {
	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", e.ID, e.Method, data)
}
