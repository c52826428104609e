package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/fieldlens/fieldlens/internal/pipeline"
)

type chatRequest struct {
	ID       string `json:"id"`
	Question string `json:"question"`
}

// handleChat answers a question about a stored extraction result, streamed
// as server-sent events. Each chunk is a data line carrying a JSON object
// with a delta field; the stream ends with a [DONE] sentinel.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.ID == "" || req.Question == "" {
		jsonError(w, "id and question are required", http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		jsonError(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	// Resolve the id before committing to an event stream, so unknown ids
	// still get a plain 404.
	if _, err := s.store.Get(req.ID); err != nil {
		jsonError(w, "result not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	err := s.orchestrator.Ask(r.Context(), req.ID, req.Question, func(delta string) error {
		chunk, err := json.Marshal(map[string]string{"delta": delta})
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", chunk); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	})
	if err != nil && !errors.Is(err, pipeline.ErrNotFound) {
		// Headers are gone; report the failure in-stream.
		chunk, _ := json.Marshal(map[string]string{"error": err.Error()})
		fmt.Fprintf(w, "data: %s\n\n", chunk)
	}

	fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
}
