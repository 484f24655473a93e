package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(codesIssuedTotal, redeemTotal) }

// Redeem outcomes
const (
	RedeemGranted  = "granted"
	RedeemInvalid  = "invalid"
	RedeemNotFound = "not_found"
)

var (
	codesIssuedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "grant_access_codes_issued_total",
			Help: "Total number of verification codes issued.",
		},
	)

	redeemTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grant_access_redeem_total",
			Help: "Verification code redeem attempts by outcome.",
		},
		[]string{"result"}, // 'granted', 'invalid', 'not_found'
	)
)

func IncCodesIssued() {
	codesIssuedTotal.Inc()
}

func IncRedeem(result string) {
	redeemTotal.WithLabelValues(result).Inc()
}
