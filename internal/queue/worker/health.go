package worker

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/eventdesk/internal/notifications"
	"github.com/geocoder89/eventdesk/internal/observability"
	"github.com/gin-gonic/gin"
)

type ReadinessDeps interface {
	Ping(ctx context.Context) error
}

func (w *Worker) HealthHandler(deps ReadinessDeps) http.Handler {
	r := gin.New()

	r.Use(gin.Recovery())

	// liveness: process is up
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	// readiness: not shutting down and the database answers
	r.GET("/readyz", func(c *gin.Context) {
		if !w.Ready() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
			return
		}

		if deps != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 500*time.Millisecond)
			defer cancel()

			if err := deps.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_not_ready"})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/statz", func(c *gin.Context) {
		c.JSON(http.StatusOK, w.Stats())
	})

	return r
}

// circuitReporter is implemented by notifiers that sit behind a breaker.
type circuitReporter interface {
	State() notifications.CircuitState
}

type Stats struct {
	Jobs observability.JobMetricsSnapShot `json:"jobs"`
	// empty when the notifier has no circuit breaker
	NotifierCircuit notifications.CircuitState `json:"notifierCircuit,omitempty"`
}

func (w *Worker) Stats() Stats {
	st := Stats{Jobs: w.metrics.Snapshot()}

	if cr, ok := w.notifier.(circuitReporter); ok {
		st.NotifierCircuit = cr.State()
	}

	return st
}
