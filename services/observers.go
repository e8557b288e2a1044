package services

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"pageCraftNN/internal/transform"
	"pageCraftNN/middleware"
)

// LogObserver logs the per-request counts at info level.
func LogObserver(logger *zap.Logger) Observer {
	return func(ctx context.Context, stats transform.Stats) {
		requestID, _ := middleware.GetRequestID(ctx)
		logger.Info("processed payload",
			zap.String("request_id", requestID),
			zap.Int("items", stats.TotalItems),
			zap.Int("resolutions", stats.Resolutions),
		)
	}
}

type TransformMetrics struct {
	documents   prometheus.Counter
	items       prometheus.Counter
	resolutions prometheus.Counter
}

func NewTransformMetrics(reg prometheus.Registerer) *TransformMetrics {
	m := &TransformMetrics{
		documents: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pagecraft_documents_processed_total",
			Help: "Total number of documents transformed",
		}),
		items: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pagecraft_items_transformed_total",
			Help: "Total number of root-level items transformed",
		}),
		resolutions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pagecraft_resolutions_processed_total",
			Help: "Total number of resolution lists transformed",
		}),
	}
	reg.MustRegister(m.documents, m.items, m.resolutions)
	return m
}

func (m *TransformMetrics) Observe(_ context.Context, stats transform.Stats) {
	m.documents.Inc()
	m.items.Add(float64(stats.TotalItems))
	m.resolutions.Add(float64(stats.Resolutions))
}
