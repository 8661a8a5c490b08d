package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// PoolStats represents database connection pool statistics.
type PoolStats struct {
	TotalConns      int32  `json:"total_conns"`
	IdleConns       int32  `json:"idle_conns"`
	AcquiredConns   int32  `json:"acquired_conns"`
	MaxConns        int32  `json:"max_conns"`
	AcquireCount    int64  `json:"acquire_count"`
	AcquireDuration string `json:"acquire_duration"`
}

// GetPoolStats returns connection pool statistics.
func GetPoolStats(pool *pgxpool.Pool) *PoolStats {
	stat := pool.Stat()
	return &PoolStats{
		TotalConns:      stat.TotalConns(),
		IdleConns:       stat.IdleConns(),
		AcquiredConns:   stat.AcquiredConns(),
		MaxConns:        stat.MaxConns(),
		AcquireCount:    stat.AcquireCount(),
		AcquireDuration: stat.AcquireDuration().String(),
	}
}

// DependencyCheck probes one backing service (redis, broker, object store).
type DependencyCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// RunChecks executes every check and reports per-dependency results.
func RunChecks(ctx context.Context, checks []DependencyCheck) (map[string]string, bool) {
	results := make(map[string]string, len(checks))
	healthy := true
	for _, dc := range checks {
		if err := dc.Check(ctx); err != nil {
			results[dc.Name] = err.Error()
			healthy = false
			continue
		}
		results[dc.Name] = "ok"
	}
	return results, healthy
}

// HealthHandler pings the database plus any extra dependencies and returns
// 503 when one of them fails.
func HealthHandler(pool *pgxpool.Pool, extra ...DependencyCheck) echo.HandlerFunc {
	checks := append([]DependencyCheck{{Name: "postgres", Check: pool.Ping}}, extra...)
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		results, healthy := RunChecks(ctx, checks)
		body := map[string]interface{}{
			"status": "healthy",
			"checks": results,
			"pool":   GetPoolStats(pool),
		}
		if !healthy {
			body["status"] = "unhealthy"
			return c.JSON(http.StatusServiceUnavailable, body)
		}
		return c.JSON(http.StatusOK, body)
	}
}
