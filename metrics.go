package adminauth

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine's Prometheus collectors. A nil *Metrics ignores
// every call.
type Metrics struct {
	logins    *prometheus.CounterVec
	refreshes prometheus.Counter
	revoked   prometheus.Counter
	sanitized prometheus.Counter
}

// NewMetrics creates the collectors and registers them on reg. A nil reg
// leaves them unregistered, which is useful in tests.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "adminauth",
			Name:      "login_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		refreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "adminauth",
			Name:      "session_refresh_total",
			Help:      "Sessions extended because they were close to expiry.",
		}),
		revoked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "adminauth",
			Name:      "session_revoked_total",
			Help:      "Sessions deleted by logout or revocation.",
		}),
		sanitized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "adminauth",
			Name:      "xss_sanitized_total",
			Help:      "Requests whose input the XSS filter rewrote.",
		}),
	}
	if reg == nil {
		return m, nil
	}
	var err error
	if m.logins, err = register(reg, m.logins); err != nil {
		return nil, err
	}
	if m.refreshes, err = register(reg, m.refreshes); err != nil {
		return nil, err
	}
	if m.revoked, err = register(reg, m.revoked); err != nil {
		return nil, err
	}
	if m.sanitized, err = register(reg, m.sanitized); err != nil {
		return nil, err
	}
	return m, nil
}

// register adopts an identical collector that is already registered, so
// two engines may share a registry.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(T); ok {
			return existing, nil
		}
	}
	return c, err
}

// LoginOutcome counts one login attempt.
func (m *Metrics) LoginOutcome(outcome string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SessionRefreshed() {
	if m == nil {
		return
	}
	m.refreshes.Inc()
}

func (m *Metrics) SessionRevoked() {
	if m == nil {
		return
	}
	m.revoked.Inc()
}

// XSSSanitized is meant for middleware.XSSConfig.OnSanitize.
func (m *Metrics) XSSSanitized() {
	if m == nil {
		return
	}
	m.sanitized.Inc()
}

func registerAuditDropped(reg prometheus.Registerer, dropped func() uint64) error {
	if reg == nil {
		return nil
	}
	_, err := register(reg, prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "adminauth",
		Name:      "audit_dropped_total",
		Help:      "Login log events dropped because the audit buffer was full.",
	}, func() float64 { return float64(dropped()) }))
	return err
}
