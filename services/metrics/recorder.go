package metricsvc

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trezcool/solienlac/core/evaluation"
)

const namespace = "solienlac"

// Recorder exports report card save metrics to Prometheus.
type Recorder struct {
	registry *prometheus.Registry

	saves        *prometheus.CounterVec
	students     *prometheus.CounterVec
	headerWrites *prometheus.CounterVec
	childWrites  *prometheus.CounterVec
	saveDuration prometheus.Histogram
}

var _ evaluation.Observer = (*Recorder)(nil)

func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		saves: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "roster_saves_total",
			Help:      "Roster saves by aggregate result.",
		}, []string{"result"}),
		students: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "student_saves_total",
			Help:      "Student report card saves by outcome.",
		}, []string{"outcome"}),
		headerWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "header_writes_total",
			Help:      "Evaluation header writes by operation.",
		}, []string{"op"}),
		childWrites: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "child_writes_total",
			Help:      "Subject comment and quality rating writes by kind and status.",
		}, []string{"kind", "status"}),
		saveDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "roster_save_duration_seconds",
			Help:      "Time taken to save a whole roster.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
	}
}

func (r *Recorder) ObserveSave(_ evaluation.Scope, res evaluation.Result, elapsed time.Duration) {
	result := "success"
	if !res.Success {
		result = "failure"
	}
	r.saves.WithLabelValues(result).Inc()
	r.saveDuration.Observe(elapsed.Seconds())

	for _, sr := range res.Students {
		r.students.WithLabelValues(sr.Outcome.String()).Inc()
		if sr.HeaderSucceeded() {
			op := "update"
			if sr.Created {
				op = "create"
			}
			r.headerWrites.WithLabelValues(op).Inc()
		}
		for _, c := range sr.Children {
			status := "ok"
			if c.Failed() {
				status = "failed"
			}
			r.childWrites.WithLabelValues(string(c.Kind), status).Inc()
		}
	}
}

// Handler serves the recorded metrics.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
