package permissions

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var consentGrants = promauto.NewCounter(prometheus.CounterOpts{
	Name: "mspcore_consent_grants_total",
	Help: "Consent re-grants performed against managed tenants.",
})
