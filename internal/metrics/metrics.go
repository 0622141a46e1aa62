// Package metrics exposes prometheus collectors for the village engines.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the engine collectors. A nil *Metrics records nothing.
type Metrics struct {
	decayTicks           prometheus.Counter
	livingPets           prometheus.Gauge
	petDeaths            *prometheus.CounterVec
	deathWarnings        prometheus.Counter
	dramaEvents          *prometheus.CounterVec
	dramaResolutions     *prometheus.CounterVec
	notificationFailures *prometheus.CounterVec
	cycleFailures        *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		decayTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "village_decay_ticks_total",
			Help: "decay ticks executed",
		}),
		livingPets: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "village_living_pets",
			Help: "living pets seen by the last decay tick",
		}),
		petDeaths: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "village_pet_deaths_total",
			Help: "pet deaths by reason",
		}, []string{"reason"}),
		deathWarnings: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "village_death_warnings_total",
			Help: "imminent death warnings emitted",
		}),
		dramaEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "village_drama_events_total",
			Help: "drama events generated by category",
		}, []string{"category", "forced"}),
		dramaResolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "village_drama_resolutions_total",
			Help: "drama votes resolved by winning option",
		}, []string{"option", "fate"}),
		notificationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "village_notification_failures_total",
			Help: "notification deliveries that failed",
		}, []string{"kind"}),
		cycleFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "village_cycle_failures_total",
			Help: "engine cycles that failed or panicked",
		}, []string{"job"}),
	}
	if reg != nil {
		reg.MustRegister(
			m.decayTicks,
			m.livingPets,
			m.petDeaths,
			m.deathWarnings,
			m.dramaEvents,
			m.dramaResolutions,
			m.notificationFailures,
			m.cycleFailures,
		)
	}
	return m
}

func (m *Metrics) DecayTick(living int) {
	if m == nil {
		return
	}
	m.decayTicks.Inc()
	m.livingPets.Set(float64(living))
}

func (m *Metrics) PetDied(reason string) {
	if m == nil {
		return
	}
	m.petDeaths.WithLabelValues(reason).Inc()
}

func (m *Metrics) DeathWarning() {
	if m == nil {
		return
	}
	m.deathWarnings.Inc()
}

func (m *Metrics) DramaEvent(category string, forced bool) {
	if m == nil {
		return
	}
	f := "false"
	if forced {
		f = "true"
	}
	m.dramaEvents.WithLabelValues(category, f).Inc()
}

func (m *Metrics) DramaResolved(option string, fate bool) {
	if m == nil {
		return
	}
	f := "false"
	if fate {
		f = "true"
	}
	m.dramaResolutions.WithLabelValues(option, f).Inc()
}

func (m *Metrics) NotificationFailed(kind string) {
	if m == nil {
		return
	}
	m.notificationFailures.WithLabelValues(kind).Inc()
}

func (m *Metrics) CycleFailed(job string) {
	if m == nil {
		return
	}
	m.cycleFailures.WithLabelValues(job).Inc()
}
