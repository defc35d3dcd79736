package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(RecommendRequests.WithLabelValues("ok"))
	RecommendRequests.WithLabelValues("ok").Inc()
	if got := testutil.ToFloat64(RecommendRequests.WithLabelValues("ok")); got != before+1 {
		t.Fatalf("requests = %v, want %v", got, before+1)
	}

	CatalogImputations.WithLabelValues("runtime").Add(2)
	if got := testutil.ToFloat64(CatalogImputations.WithLabelValues("runtime")); got < 2 {
		t.Errorf("imputations = %v, want >= 2", got)
	}
}
