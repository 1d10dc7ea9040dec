package metrics

import (
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
)

func TestRecordSliceIncrementsCounters(t *testing.T) {
	r := NewRegistry()
	r.RecordSlice("ok", 5*time.Millisecond, 100)

	mf, err := r.PrometheusRegistry().Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}

	found := false
	for _, family := range mf {
		if family.GetName() == "gridview_slice_requests_total" {
			found = true
			for _, m := range family.Metric {
				if m.Counter.GetValue() != 1 {
					t.Errorf("counter value = %v, want 1", m.Counter.GetValue())
				}
			}
		}
	}
	if !found {
		t.Error("expected gridview_slice_requests_total metric family")
	}
}

func TestSetOpenFiles(t *testing.T) {
	r := NewRegistry()
	r.SetOpenFiles(3)

	mf, err := r.PrometheusRegistry().Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	var gauge *dto.MetricFamily
	for _, f := range mf {
		if f.GetName() == "gridview_open_files" {
			gauge = f
		}
	}
	if gauge == nil {
		t.Fatal("expected gridview_open_files metric family")
	}
	if gauge.Metric[0].Gauge.GetValue() != 3 {
		t.Errorf("gauge value = %v, want 3", gauge.Metric[0].Gauge.GetValue())
	}
}
