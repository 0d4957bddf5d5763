package metrics

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolStatter is implemented by *pgxpool.Pool.
type PoolStatter interface {
	Stat() *pgxpool.Stat
}

// RecordDBPoolMetrics copies the pool's connection counts into DBPoolConnections.
func RecordDBPoolMetrics(pool PoolStatter) {
	stats := pool.Stat()

	DBPoolConnections.WithLabelValues("in_use").Set(float64(stats.AcquiredConns()))
	DBPoolConnections.WithLabelValues("idle").Set(float64(stats.IdleConns()))
	DBPoolConnections.WithLabelValues("constructing").Set(float64(stats.ConstructingConns()))
	DBPoolConnections.WithLabelValues("total").Set(float64(stats.TotalConns()))
	DBPoolConnections.WithLabelValues("max").Set(float64(stats.MaxConns()))
}
