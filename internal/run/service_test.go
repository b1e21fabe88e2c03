package run

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onboardify/internal/enrich"
	"onboardify/internal/gather"
	"onboardify/internal/githubapi"
	"onboardify/internal/llm"
)

func stubRepoServer() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/repos/octo/demo":
			_, _ = w.Write([]byte(`{"full_name":"octo/demo","description":"demo","language":"JavaScript","default_branch":"main"}`))
		case strings.HasPrefix(r.URL.Path, "/repos/octo/demo/git/trees/"):
			_, _ = w.Write([]byte(`{"tree":[
				{"path":"README.md","type":"blob"},
				{"path":"package.json","type":"blob"},
				{"path":"src/app.js","type":"blob"}
			]}`))
		case r.URL.Path == "/repos/octo/demo/commits":
			_, _ = w.Write([]byte(`[]`))
		case strings.HasPrefix(r.URL.Path, "/repos/octo/demo/contents/"):
			_, _ = w.Write([]byte(`{"dependencies":{"react":"^18.0.0"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func newTestService(baseURL string, cli llm.Client, sink Sink) *Service {
	g := gather.New(githubapi.NewClient(baseURL), 2)
	e := enrich.New(cli, time.Second)
	return NewService(g, e, sink)
}

// drain collects events until the run channel closes.
func drain(t *testing.T, svc *Service, runID string) []Event {
	t.Helper()
	ch, ok := svc.Events().Get(runID)
	require.True(t, ok, "run channel must be registered")

	var events []Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, open := <-ch:
			if !open {
				return events
			}
			events = append(events, ev)
		case <-timeout:
			t.Fatal("timed out waiting for run to finish")
		}
	}
}

func TestRunEmitsOrderedEventsAndResult(t *testing.T) {
	ts := stubRepoServer()
	defer ts.Close()

	sink := &MemorySink{}
	svc := newTestService(ts.URL, llm.NewFakeClient(), sink)
	runID := svc.Start("octo", "demo", "")
	events := drain(t, svc, runID)

	require.NotEmpty(t, events)

	// All but the last are progress events with strictly increasing percent.
	last := events[len(events)-1]
	prev := -1
	for _, ev := range events[:len(events)-1] {
		assert.Equal(t, EventProgress, ev.Type)
		assert.Greater(t, ev.Percent, prev)
		prev = ev.Percent
	}
	assert.Equal(t, EventResult, last.Type)
	assert.Equal(t, 100, last.Percent)
	require.NotNil(t, last.Report)
	assert.Equal(t, "ai-enhanced", last.Report.AnalysisMode)
	assert.Contains(t, last.Report.OnboardingGuide, "octo/demo")

	terminals := 0
	for _, ev := range events {
		if ev.Terminal() {
			terminals++
		}
	}
	assert.Equal(t, 1, terminals)

	// Every stage reported to the sink in order.
	var started []string
	for _, te := range sink.Recorded() {
		if te.Event == "stage started" {
			started = append(started, te.Stage)
		}
	}
	assert.Equal(t, []string{"gathering", "classifying", "inferring", "enriching", "synthesizing"}, started)
}

func TestValidationFailureEmitsErrorEvent(t *testing.T) {
	sink := &MemorySink{}
	svc := newTestService("http://127.0.0.1:0", nil, sink)
	runID := svc.Start("  ", "demo", "")
	events := drain(t, svc, runID)

	require.Len(t, events, 1)
	assert.Equal(t, EventError, events[0].Type)
	assert.Equal(t, "validation", events[0].ErrorKind)
	assert.Nil(t, events[0].Report)

	recorded := sink.Recorded()
	require.NotEmpty(t, recorded)
	assert.Equal(t, "validation failed", recorded[0].Event)
}

func TestGatherFailureEndsStreamWithErrorEvent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	svc := newTestService(ts.URL, nil, nil)
	runID := svc.Start("octo", "gone", "")
	events := drain(t, svc, runID)

	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, EventError, last.Type)
	assert.Equal(t, "not-found", last.ErrorKind)
	for _, ev := range events[:len(events)-1] {
		assert.Equal(t, EventProgress, ev.Type)
	}
}

func TestEnrichmentFallbackStillProducesResult(t *testing.T) {
	ts := stubRepoServer()
	defer ts.Close()

	sink := &MemorySink{}
	svc := newTestService(ts.URL, nil, sink) // no AI client at all
	runID := svc.Start("octo", "demo", "")
	events := drain(t, svc, runID)

	last := events[len(events)-1]
	require.Equal(t, EventResult, last.Type)
	assert.Equal(t, "heuristic-fallback", last.Report.AnalysisMode)

	var sawFallback bool
	for _, te := range sink.Recorded() {
		if te.Event == "fallback triggered" {
			sawFallback = true
		}
	}
	assert.True(t, sawFallback, "sink must record the enrichment fallback")
}

func TestCancelSuppressesFurtherEvents(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Hold every call until the test releases it, so Cancel lands while
		// the gather stage is in flight.
		select {
		case <-release:
		case <-r.Context().Done():
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()
	defer close(release)

	svc := newTestService(ts.URL, nil, nil)
	runID := svc.Start("octo", "demo", "")

	time.Sleep(50 * time.Millisecond)
	svc.Cancel(runID)

	events := drain(t, svc, runID)
	for _, ev := range events {
		assert.False(t, ev.Terminal(), "no terminal event may follow cancellation, got %+v", ev)
	}
}

func TestBrokerAllocateAndGet(t *testing.T) {
	b := NewEventBroker()
	ch := b.Allocate("run-1", 0)
	require.NotNil(t, ch)

	got, ok := b.Get("run-1")
	assert.True(t, ok)
	assert.True(t, ch == got)

	_, ok = b.Get("missing")
	assert.False(t, ok)
}

func TestTraceLoggerRoundTrip(t *testing.T) {
	l := NewTraceLogger(t.TempDir())
	l.Event("run-9", StateGathering, "stage started", nil)
	l.Event("run-9", StateGathering, "stage completed", map[string]any{"tree_entries": float64(3)})
	l.Event("other", StateFailed, "gather failed", nil)

	events, err := l.Read("run-9")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "run-9", events[0].RunID)
	assert.Equal(t, "stage started", events[0].Event)
	assert.Equal(t, float64(3), events[1].Fields["tree_entries"])

	none, err := l.Read("never-ran")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestTraceLoggerSanitizesRunID(t *testing.T) {
	l := NewTraceLogger(t.TempDir())
	l.Event("../../etc/passwd", StateDone, "run completed", nil)
	events, err := l.Read("../../etc/passwd")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "run completed", events[0].Event)
}
