package metrics

import "github.com/prometheus/client_golang/prometheus"

// ChatMetrics exposes counters/histograms for chat and booking flows.
type ChatMetrics struct {
	turnsTotal         *prometheus.CounterVec
	bookingOffers      prometheus.Counter
	slotSourceTotal    *prometheus.CounterVec
	upstreamErrors     *prometheus.CounterVec
	bookingSubmissions *prometheus.CounterVec
	completionLatency  *prometheus.HistogramVec
}

func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	m := &ChatMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatbot",
			Subsystem: "chat",
			Name:      "turns_total",
			Help:      "Chat turns handled, by reply outcome",
		}, []string{"outcome"}),
		bookingOffers: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chatbot",
			Subsystem: "chat",
			Name:      "booking_offers_total",
			Help:      "Booking invitations issued",
		}),
		slotSourceTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatbot",
			Subsystem: "booking",
			Name:      "slot_lookups_total",
			Help:      "Slot lookups, by the provider that answered",
		}, []string{"source"}),
		upstreamErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatbot",
			Subsystem: "upstream",
			Name:      "errors_total",
			Help:      "Absorbed upstream failures, by capability",
		}, []string{"capability"}),
		bookingSubmissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chatbot",
			Subsystem: "booking",
			Name:      "submissions_total",
			Help:      "Booking intake requests, by status",
		}, []string{"status"}),
		completionLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "chatbot",
			Subsystem: "chat",
			Name:      "completion_latency_seconds",
			Help:      "Latency of completion calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.bookingOffers, m.slotSourceTotal, m.upstreamErrors, m.bookingSubmissions, m.completionLatency)
	return m
}

// ObserveTurn counts a turn; outcome is "model" or "fallback".
func (m *ChatMetrics) ObserveTurn(outcome string) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(outcome).Inc()
}

func (m *ChatMetrics) ObserveBookingOffer() {
	if m == nil {
		return
	}
	m.bookingOffers.Inc()
}

func (m *ChatMetrics) ObserveSlotSource(source string) {
	if m == nil {
		return
	}
	m.slotSourceTotal.WithLabelValues(source).Inc()
}

func (m *ChatMetrics) ObserveUpstreamError(capability string) {
	if m == nil {
		return
	}
	m.upstreamErrors.WithLabelValues(capability).Inc()
}

func (m *ChatMetrics) ObserveBookingSubmission(status string) {
	if m == nil {
		return
	}
	m.bookingSubmissions.WithLabelValues(status).Inc()
}

func (m *ChatMetrics) ObserveCompletionLatency(success bool, seconds float64) {
	if m == nil {
		return
	}
	status := "ok"
	if !success {
		status = "error"
	}
	m.completionLatency.WithLabelValues(status).Observe(seconds)
}
