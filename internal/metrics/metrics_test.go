package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollectorCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordMatchDecision(DecisionApproveMatch)
	c.RecordMatchDecision(DecisionApproveMatch)
	c.RecordMatchDecision(DecisionRejectMatch)
	c.RecordPush("notification", true)
	c.RecordPush("notification", false)
	c.RecordPush("notification", false)
	c.ConnectionOpened()
	c.ConnectionOpened()
	c.ConnectionClosed()

	if got := testutil.ToFloat64(c.matchDecisions.WithLabelValues(DecisionApproveMatch)); got != 2 {
		t.Errorf("expected 2 approve_match decisions, got %v", got)
	}
	if got := testutil.ToFloat64(c.pushes.WithLabelValues("notification", "dropped")); got != 2 {
		t.Errorf("expected 2 dropped pushes, got %v", got)
	}
	if got := testutil.ToFloat64(c.connections); got != 1 {
		t.Errorf("expected 1 open connection, got %v", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordNotification()

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "najdeno_notifications_created_total 1") {
		t.Errorf("expected notification counter in output, got:\n%s", body)
	}
}
