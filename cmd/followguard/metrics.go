package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// serves metrics from the default gatherer, plus the admin registry if it is a separate one
func promhttpHandler(reg prometheus.Registerer) http.Handler {
	gatherers := prometheus.Gatherers{prometheus.DefaultGatherer}
	if g, ok := reg.(prometheus.Gatherer); ok && reg != prometheus.DefaultRegisterer {
		gatherers = append(gatherers, g)
	}
	return promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{})
}
