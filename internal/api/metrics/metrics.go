// Package metrics defines the custom Prometheus metrics of the registration
// API. It is the single source of truth for metric names, labels and help
// strings.
//
// Call Register once per registry before serving /metrics. HTTP request
// metrics come from echoprometheus and are not declared here.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "registration"

// RegistrationsTotal counts POST /api/register outcomes.
// Label:
//   - result: "success", "invalid", "duplicate" or "error"
var RegistrationsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of registration attempts, by result.",
	},
	[]string{"result"},
)

// UsersRegisteredTotal counts successful registrations by role.
var UsersRegisteredTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "users_registered_total",
		Help:      "Total number of users registered, by role.",
	},
	[]string{"role"},
)

// AdminLoginsTotal counts POST /api/admin/login outcomes.
// Label:
//   - result: "success", "invalid", "invalid_credentials", "throttled" or "error"
var AdminLoginsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "admin_logins_total",
		Help:      "Total number of admin login attempts, by result.",
	},
	[]string{"result"},
)

// AuthRejectionsTotal counts requests stopped by the access guard.
// Label:
//   - reason: "missing_token", "malformed_header", "invalid_token",
//     "expired_token" or "forbidden"
var AuthRejectionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_rejections_total",
		Help:      "Total number of requests rejected by authentication or authorization.",
	},
	[]string{"reason"},
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		RegistrationsTotal,
		UsersRegisteredTotal,
		AdminLoginsTotal,
		AuthRejectionsTotal,
	}
}

// Register adds every custom metric to reg. Registering twice with the same
// registry is not an error.
func Register(reg prometheus.Registerer) error {
	for _, c := range collectors() {
		if err := reg.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				continue
			}
			return err
		}
	}
	return nil
}
