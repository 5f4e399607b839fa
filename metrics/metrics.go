// Package metrics exports the ledger's operational counters to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"Gin_postgres_redis_lend_ledger/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lend_ledger"

// Collector implements lending.Metrics on its own registry so tests can
// build as many as they like.
type Collector struct {
	reg *prometheus.Registry

	borrows      *prometheus.CounterVec
	borrowUnits  prometheus.Counter
	returns      *prometheus.CounterVec
	returnUnits  *prometheus.CounterVec
	persist      *prometheus.HistogramVec
	persistFails *prometheus.CounterVec
	unitsOnLoan  prometheus.Gauge
}

func New() *Collector {
	c := &Collector{
		reg: prometheus.NewRegistry(),
		borrows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "borrow_requests_total",
			Help:      "Borrow requests by result.",
		}, []string{"result"}),
		borrowUnits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "borrowed_units_total",
			Help:      "Units handed out by successful borrows.",
		}),
		returns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "return_lines_total",
			Help:      "Return lines by result.",
		}, []string{"result"}),
		returnUnits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "returned_units_total",
			Help:      "Units taken back, by condition.",
		}, []string{"condition"}),
		persist: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "persist_duration_seconds",
			Help:      "Snapshot write latency by operation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		persistFails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_failures_total",
			Help:      "Snapshot writes that failed, by operation.",
		}, []string{"op"}),
		unitsOnLoan: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "units_on_loan",
			Help:      "Units currently out on unreturned loans.",
		}),
	}
	c.reg.MustRegister(
		c.borrows, c.borrowUnits, c.returns, c.returnUnits,
		c.persist, c.persistFails, c.unitsOnLoan,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

func (c *Collector) ObserveBorrow(result string, units int) {
	c.borrows.WithLabelValues(result).Inc()
	if result == "ok" {
		c.borrowUnits.Add(float64(units))
	}
}

func (c *Collector) ObserveReturn(result string, cond models.Condition, units int) {
	c.returns.WithLabelValues(result).Inc()
	if result == "ok" {
		c.returnUnits.WithLabelValues(string(cond)).Add(float64(units))
	}
}

func (c *Collector) ObservePersist(op string, d time.Duration, err error) {
	c.persist.WithLabelValues(op).Observe(d.Seconds())
	if err != nil {
		c.persistFails.WithLabelValues(op).Inc()
	}
}

func (c *Collector) SetUnitsOnLoan(n int) { c.unitsOnLoan.Set(float64(n)) }

// Handler serves this collector's registry in the text exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{Registry: c.reg})
}
