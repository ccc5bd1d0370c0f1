package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	registrationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "viewtube_registrations_total",
		Help: "Total number of successful user registrations.",
	})

	loginsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "viewtube_logins_total",
		Help: "Total number of successful user logins.",
	})

	refreshesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "viewtube_refreshes_total",
		Help: "Total number of successful token refreshes.",
	})

	uploadsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "viewtube_media_uploads_total",
		Help: "Total number of successful media uploads.",
	})
)
