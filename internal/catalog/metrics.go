package catalog

import "github.com/prometheus/client_golang/prometheus"

const (
	opAdd    = "add"
	opList   = "list"
	opGet    = "get"
	opUpdate = "update"
	opDelete = "delete"
)

type StoreMetrics struct {
	Operations *prometheus.CounterVec
	Loads      *prometheus.CounterVec
}

func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	m := &StoreMetrics{
		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_store_operations_total",
				Help: "Catalog store operations by outcome",
			},
			[]string{"op", "outcome"},
		),
		Loads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_store_loads_total",
				Help: "Catalog blob loads, by result",
			},
			[]string{"result"},
		),
	}

	reg.MustRegister(m.Operations, m.Loads)
	return m
}

func (m *StoreMetrics) observe(op string, err error) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(op, Outcome(err)).Inc()
}

func (m *StoreMetrics) observeLoad(result string) {
	if m == nil {
		return
	}
	m.Loads.WithLabelValues(result).Inc()
}
