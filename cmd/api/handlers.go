package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"onboardify/internal/run"
)

type apiServer struct {
	svc   *run.Service
	trace *run.TraceLogger
}

type analyzeRequest struct {
	Owner string `json:"owner"`
	Name  string `json:"name"`
	Token string `json:"token,omitempty"`
}

func (s *apiServer) decodeAnalyzeRequest(r *http.Request) (analyzeRequest, error) {
	var in analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		return analyzeRequest{}, fmt.Errorf("invalid json body")
	}
	// Authorization header wins over the body token.
	if auth := strings.TrimSpace(r.Header.Get("Authorization")); auth != "" {
		if tok, ok := strings.CutPrefix(auth, "Bearer "); ok {
			in.Token = strings.TrimSpace(tok)
		}
	}
	return in, nil
}

// handleAnalyze starts a run and returns its id; events are consumed via
// /api/watch/{run_id} or /ws/watch. Validation of owner/name happens inside
// the run so the failure arrives as an error event on the stream.
func (s *apiServer) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	in, err := s.decodeAnalyzeRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	runID := s.svc.Start(in.Owner, in.Name, in.Token)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"run_id": runID})
}

// handleAnalyzeStream starts a run and streams its events over SSE in the
// same request. Client disconnect cancels the run.
func (s *apiServer) handleAnalyzeStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	in, err := s.decodeAnalyzeRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	runID := s.svc.Start(in.Owner, in.Name, in.Token)
	eventCh, ok := s.svc.Events().Get(runID)
	if !ok {
		http.Error(w, "run not found", http.StatusInternalServerError)
		return
	}
	s.streamSSE(w, r, runID, eventCh)
}

// handleWatchSSE handles Server-Sent Events for watching a run.
func (s *apiServer) handleWatchSSE(w http.ResponseWriter, r *http.Request) {
	// Extract run_id from path: /api/watch/{run_id}
	runID := strings.TrimPrefix(r.URL.Path, "/api/watch/")
	if runID == "" {
		http.Error(w, "run_id required", http.StatusBadRequest)
		return
	}
	eventCh, ok := s.svc.Events().Get(runID)
	if !ok {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}
	s.streamSSE(w, r, runID, eventCh)
}

func (s *apiServer) streamSSE(w http.ResponseWriter, r *http.Request, runID string, eventCh <-chan run.Event) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			// Watcher went away: stop the run, emit nothing further.
			s.svc.Cancel(runID)
			return
		case event, ok := <-eventCh:
			if !ok {
				writeSSESentinel(w, flusher)
				return
			}
			data, err := json.Marshal(event)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
			if event.Terminal() {
				writeSSESentinel(w, flusher)
				return
			}
		}
	}
}

// writeSSESentinel marks stream end after the terminal event.
func writeSSESentinel(w http.ResponseWriter, flusher http.Flusher) {
	fmt.Fprint(w, "data: [DONE]\n\n")
	flusher.Flush()
}

// handleRunLogs returns the persisted trace events for a run.
func (s *apiServer) handleRunLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	runID := strings.TrimSpace(r.URL.Query().Get("run_id"))
	if runID == "" {
		http.Error(w, "run_id is required", http.StatusBadRequest)
		return
	}
	events, err := s.trace.Read(runID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"run_id": runID,
		"events": events,
	})
}
