//go:build !integration

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// counterValue gathers c through a private registry and returns the value of
// the series whose labels match want.
func counterValue(t *testing.T, c prometheus.Collector, want map[string]string) float64 {
	t.Helper()
	reg := prometheus.NewRegistry()
	reg.MustRegister(c)
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, f := range families {
		for _, m := range f.GetMetric() {
			match := true
			for _, lp := range m.GetLabel() {
				if v, ok := want[lp.GetName()]; ok && v != lp.GetValue() {
					match = false
				}
			}
			if match {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestObserveAPIRequest(t *testing.T) {
	ObserveAPIRequest("Ask", 200, 120*time.Millisecond)
	ObserveAPIRequest("ask", 0, time.Second)

	if got := counterValue(t, apiRequestsTotal, map[string]string{"op": "ask", "code": "200"}); got < 1 {
		t.Errorf("expected ask/200 counted, got %v", got)
	}
	if got := counterValue(t, apiRequestsTotal, map[string]string{"op": "ask", "code": "transport"}); got < 1 {
		t.Errorf("expected transport failure counted, got %v", got)
	}
}

func TestUICounters(t *testing.T) {
	IncStatusShown(" ERROR ")
	if got := counterValue(t, statusShownTotal, map[string]string{"kind": "error"}); got != 1 {
		t.Errorf("expected label to be normalised, got %v", got)
	}
}
