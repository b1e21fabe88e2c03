package run

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"onboardify/internal/analyzer"
	"onboardify/internal/enrich"
	"onboardify/internal/gather"
	"onboardify/internal/githubapi"
	"onboardify/internal/report"
)

const eventChannelSize = 128

// Service drives the analysis pipeline end to end and owns the single output
// channel of each run. No other component writes events directly, which
// keeps ordering deterministic even though the gather stage fans out.
type Service struct {
	gatherer *gather.Gatherer
	enricher *enrich.Enricher
	events   *EventBroker
	sink     Sink

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

// NewService creates the pipeline driver. A nil sink disables telemetry.
func NewService(g *gather.Gatherer, e *enrich.Enricher, sink Sink) *Service {
	if sink == nil {
		sink = NopSink{}
	}
	return &Service{
		gatherer: g,
		enricher: e,
		events:   NewEventBroker(),
		sink:     sink,
	}
}

// Events returns the broker so transports can attach watchers.
func (s *Service) Events() *EventBroker { return s.events }

// Start launches an analysis run and returns its id. Events flow on the
// channel registered with the broker; the channel is closed after the
// terminal event.
func (s *Service) Start(owner, name, token string) string {
	runID := fmt.Sprintf("run-%d", time.Now().UnixNano())
	eventCh := s.events.Allocate(runID, eventChannelSize)

	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	if s.cancels == nil {
		s.cancels = make(map[string]context.CancelFunc)
	}
	s.cancels[runID] = cancel
	s.mu.Unlock()

	go func() {
		defer func() {
			close(eventCh)
			s.events.ScheduleCleanup(runID)
			s.mu.Lock()
			delete(s.cancels, runID)
			s.mu.Unlock()
			cancel()
		}()
		s.execute(ctx, runID, owner, name, token, eventCh)
	}()

	return runID
}

// Cancel stops a run. Used when the watching caller disconnects so no work
// is wasted on a report nobody will receive.
func (s *Service) Cancel(runID string) {
	s.mu.Lock()
	cancel := s.cancels[runID]
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// execute is the run state machine. Exactly one terminal event per run:
// only validation and the mandatory metadata call can fail the stream,
// everything downstream degrades instead.
func (s *Service) execute(ctx context.Context, runID, owner, name, token string, eventCh chan<- Event) {
	owner = strings.TrimSpace(owner)
	name = strings.TrimSpace(name)
	if owner == "" || name == "" {
		s.sink.Event(runID, StateFailed, "validation failed", map[string]any{"owner": owner, "name": name})
		s.emit(ctx, eventCh, Event{
			Type:      EventError,
			Message:   "owner and name are required",
			ErrorKind: "validation",
		})
		return
	}
	handle := gather.Handle{Owner: owner, Name: name}

	s.transition(ctx, runID, StateGathering, eventCh)
	snap, err := s.gatherer.Gather(ctx, handle, token)
	if err != nil {
		if ctx.Err() != nil {
			// Caller went away; emit nothing further.
			return
		}
		s.sink.Event(runID, StateFailed, "gather failed", map[string]any{"error": err.Error()})
		s.emit(ctx, eventCh, Event{
			Type:      EventError,
			Message:   fmt.Sprintf("failed to gather %s: %v", handle, err),
			ErrorKind: errorKind(err),
		})
		return
	}
	s.sink.Event(runID, StateGathering, "stage completed", map[string]any{
		"tree_entries": len(snap.Tree), "key_files": len(snap.Files),
	})

	s.transition(ctx, runID, StateClassifying, eventCh)
	keyFiles := make([]analyzer.KeyFile, 0, len(snap.Files))
	for _, f := range snap.Files {
		keyFiles = append(keyFiles, analyzer.Classify(f.Path, f.Content))
	}
	s.sink.Event(runID, StateClassifying, "stage completed", map[string]any{"classified": len(keyFiles)})

	s.transition(ctx, runID, StateInferring, eventCh)
	structure := analyzer.InferStructure(keyFiles)
	s.sink.Event(runID, StateInferring, "stage completed", map[string]any{
		"language": structure.Language, "architecture": structure.Architecture,
	})

	s.transition(ctx, runID, StateEnriching, eventCh)
	enrichment := s.enricher.Enrich(ctx, snap, keyFiles, structure)
	if enrichment.Confidence == enrich.ConfidenceFallback {
		s.sink.Event(runID, StateEnriching, "fallback triggered", nil)
	} else {
		s.sink.Event(runID, StateEnriching, "stage completed", nil)
	}
	if ctx.Err() != nil {
		return
	}

	s.transition(ctx, runID, StateSynthesizing, eventCh)
	rep := report.Synthesize(snap, keyFiles, structure, enrichment, time.Now())
	s.sink.Event(runID, StateSynthesizing, "stage completed", map[string]any{"mode": rep.AnalysisMode})

	s.emit(ctx, eventCh, Event{
		Type:    EventResult,
		Message: "analysis complete",
		Percent: 100,
		Report:  &rep,
	})
	s.sink.Event(runID, StateDone, "run completed", nil)
}

func (s *Service) transition(ctx context.Context, runID string, state State, eventCh chan<- Event) {
	percent, message := checkpointFor(state)
	s.sink.Event(runID, state, "stage started", nil)
	s.emit(ctx, eventCh, Event{Type: EventProgress, Message: message, Percent: percent})
}

// emit delivers an event unless the run context is already canceled;
// nothing may reach the stream after disconnection is observed.
func (s *Service) emit(ctx context.Context, eventCh chan<- Event, ev Event) {
	select {
	case <-ctx.Done():
	case eventCh <- ev:
	}
}

func errorKind(err error) string {
	var apiErr *githubapi.APIError
	if errors.As(err, &apiErr) {
		return string(apiErr.Kind)
	}
	return string(githubapi.KindUnknown)
}
