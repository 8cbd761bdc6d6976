package catalog

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	categoriesTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "shopdesk",
		Subsystem: "catalog",
		Name:      "categories",
		Help:      "Categories currently held in the local tree.",
	})

	patchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shopdesk",
		Subsystem: "catalog",
		Name:      "patches_total",
		Help:      "Confirmed mutations by action and whether they changed the tree.",
	}, []string{"action", "result"})
)
