package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorder_ObserveQuery(t *testing.T) {
	r := NewRecorder(nil)

	r.ObserveQuery("wikidata", OutcomeHit, 2*time.Millisecond)
	r.ObserveQuery("wikidata", OutcomeHit, time.Millisecond)
	r.ObserveQuery("wikidata", OutcomeMiss, 40*time.Millisecond)

	if got := testutil.ToFloat64(r.queries.WithLabelValues("wikidata", "hit")); got != 2 {
		t.Errorf("hit counter = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.queries.WithLabelValues("wikidata", "miss")); got != 1 {
		t.Errorf("miss counter = %v, want 1", got)
	}
}

func TestRecorder_ObserveInvalidation(t *testing.T) {
	r := NewRecorder(prometheus.NewRegistry())

	r.ObserveInvalidation("dbpedia", 7)
	if got := testutil.ToFloat64(r.invalidated.WithLabelValues("dbpedia")); got != 7 {
		t.Errorf("invalidated counter = %v, want 7", got)
	}
}

func TestRecorder_NilIsInert(t *testing.T) {
	var r *Recorder

	// Must not panic.
	r.ObserveQuery("x", OutcomeError, time.Second)
	r.ObserveInvalidation("x", 1)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code == 200 {
		t.Error("nil recorder handler should not serve metrics")
	}
}

func TestRecorder_HandlerServes(t *testing.T) {
	r := NewRecorder(nil)
	r.ObserveQuery("wikidata", OutcomeFresh, time.Millisecond)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 200 {
		t.Fatalf("metrics handler status = %d", rec.Code)
	}
	if body := rec.Body.String(); body == "" {
		t.Error("metrics handler served empty body")
	}
}
