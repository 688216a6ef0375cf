package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// MerchantMetrics counts merchant lifecycle events. All methods are safe on a nil receiver.
type MerchantMetrics struct {
	created            prometheus.Counter
	updated            prometheus.Counter
	lookups            *prometheus.CounterVec
	validationFailures *prometheus.CounterVec
}

// NewMerchantMetrics creates the merchant counters and registers them on reg
func NewMerchantMetrics(reg prometheus.Registerer) *MerchantMetrics {
	m := &MerchantMetrics{
		created: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "merchant_create_total",
			Help: "Total number of merchant creations",
		}),
		updated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "merchant_update_total",
			Help: "Total number of merchant updates",
		}),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "merchant_lookup_total",
			Help: "Total number of merchant retrievals by kind (get, all, active, inactive)",
		}, []string{"kind"}),
		validationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "merchant_validation_failures_total",
			Help: "Total number of rejected merchant writes by field and failure kind",
		}, []string{"field", "kind"}),
	}

	reg.MustRegister(m.created, m.updated, m.lookups, m.validationFailures)
	return m
}

func (m *MerchantMetrics) ObserveCreated() {
	if m == nil {
		return
	}
	m.created.Inc()
}

func (m *MerchantMetrics) ObserveUpdated() {
	if m == nil {
		return
	}
	m.updated.Inc()
}

func (m *MerchantMetrics) ObserveLookup(kind string) {
	if m == nil {
		return
	}
	m.lookups.WithLabelValues(kind).Inc()
}

func (m *MerchantMetrics) ObserveValidationFailure(field, kind string) {
	if m == nil {
		return
	}
	m.validationFailures.WithLabelValues(field, kind).Inc()
}
