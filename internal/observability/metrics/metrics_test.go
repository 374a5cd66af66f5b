package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, metric := range fam.GetMetric() {
			if labelsMatch(metric, labels) {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func labelsMatch(metric *dto.Metric, want map[string]string) bool {
	got := map[string]string{}
	for _, lp := range metric.GetLabel() {
		got[lp.GetName()] = lp.GetValue()
	}
	for k, v := range want {
		if got[k] != v {
			return false
		}
	}
	return true
}

func TestChatMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewChatMetrics(reg)

	m.ObserveTurn("model")
	m.ObserveTurn("model")
	m.ObserveTurn("fallback")
	m.ObserveBookingOffer()
	m.ObserveSlotSource("synthetic")
	m.ObserveUpstreamError("completion")
	m.ObserveBookingSubmission("accepted")
	m.ObserveCompletionLatency(true, 0.4)
	m.ObserveCompletionLatency(false, 20)

	if v := counterValue(t, reg, "chatbot_chat_turns_total", map[string]string{"outcome": "model"}); v != 2 {
		t.Fatalf("expected 2 model turns, got %v", v)
	}
	if v := counterValue(t, reg, "chatbot_chat_booking_offers_total", nil); v != 1 {
		t.Fatalf("expected 1 offer, got %v", v)
	}
	if v := counterValue(t, reg, "chatbot_booking_slot_lookups_total", map[string]string{"source": "synthetic"}); v != 1 {
		t.Fatalf("expected 1 synthetic lookup, got %v", v)
	}
	if v := counterValue(t, reg, "chatbot_upstream_errors_total", map[string]string{"capability": "completion"}); v != 1 {
		t.Fatalf("expected 1 completion error, got %v", v)
	}
}

func TestChatMetricsDefaultRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	prev := prometheus.DefaultRegisterer
	prometheus.DefaultRegisterer = reg
	defer func() { prometheus.DefaultRegisterer = prev }()

	m := NewChatMetrics(nil)
	m.ObserveBookingSubmission("invalid")
	if v := counterValue(t, reg, "chatbot_booking_submissions_total", map[string]string{"status": "invalid"}); v != 1 {
		t.Fatalf("expected default registerer to be used, got %v", v)
	}
}

func TestChatMetricsNilSafe(t *testing.T) {
	var m *ChatMetrics
	m.ObserveTurn("model")
	m.ObserveBookingOffer()
	m.ObserveSlotSource("calendly")
	m.ObserveUpstreamError("mail")
	m.ObserveBookingSubmission("accepted")
	m.ObserveCompletionLatency(true, 0.1)
}
