package planner

import "github.com/prometheus/client_golang/prometheus"

// Metrics are the collectors the planner updates. They are registered by the router.
var Metrics = []prometheus.Collector{
	plansCreated,
	plansDeduplicated,
	linkFailures,
}

var plansCreated = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "allocation_plans_created_total",
		Help: "How many allocation plans were created.",
	},
)

var plansDeduplicated = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "allocation_plans_deduplicated_total",
		Help: "How many allocation requests returned an existing plan instead of creating one.",
	},
)

var linkFailures = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "allocation_link_failures_total",
		Help: "How many source transactions could not be linked to their allocation plan.",
	},
)
