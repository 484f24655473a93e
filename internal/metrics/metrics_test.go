package metrics

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrantCounters(t *testing.T) {
	before := testutil.ToFloat64(codesIssuedTotal)
	IncCodesIssued()
	assert.Equal(t, before+1, testutil.ToFloat64(codesIssuedTotal))

	granted := testutil.ToFloat64(redeemTotal.WithLabelValues(RedeemGranted))
	IncRedeem(RedeemGranted)
	IncRedeem(RedeemInvalid)
	assert.Equal(t, granted+1, testutil.ToFloat64(redeemTotal.WithLabelValues(RedeemGranted)))
}

func TestObserveRequest(t *testing.T) {
	c := httpRequestsTotal.WithLabelValues("unmatched", "GET", "404")
	before := testutil.ToFloat64(c)
	ObserveRequest("", "GET", 404, 5*time.Millisecond)
	assert.Equal(t, before+1, testutil.ToFloat64(c))
}

func TestHandler(t *testing.T) {
	MustRegister()
	MustRegister()
	IncCodesIssued()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "grant_access_codes_issued_total")
}

func TestRegisterDBStats(t *testing.T) {
	// sql.Open only validates the driver name; no connection is made
	db, err := sql.Open("postgres", "postgres://user@127.0.0.1:1/none?sslmode=disable")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, RegisterDBStats(db, "metrics_test"))
	assert.Error(t, RegisterDBStats(db, "metrics_test"), "same name registers once")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `go_sql_open_connections{db_name="metrics_test"}`)
}
