package metrics

import (
	"database/sql"

	"github.com/prometheus/client_golang/prometheus"
	promcollectors "github.com/prometheus/client_golang/prometheus/collectors"
)

// RegisterDBStats exposes database/sql pool statistics for db under the given name
func RegisterDBStats(db *sql.DB, name string) error {
	return prometheus.Register(promcollectors.NewDBStatsCollector(db, name))
}
