package main

import (
	"fmt"
	"net/http"

	"idlekingdom.dev/internal/host"
	"idlekingdom.dev/internal/persistence/savedb"
	"idlekingdom.dev/internal/sim/ledger"
)

// metricsHandler writes a minimal Prometheus exposition of the running
// kingdom. db may be nil.
func metricsHandler(rt *host.Runtime, db *savedb.DB) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		s, ok := rt.Snapshot()
		if !ok {
			rw.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		rates := rt.Engine().Rates(s)
		fmt.Fprintf(rw, "# HELP idlekingdom_tick Current game tick.\n")
		fmt.Fprintf(rw, "# TYPE idlekingdom_tick gauge\n")
		fmt.Fprintf(rw, "idlekingdom_tick %d\n", s.Tick)
		fmt.Fprintf(rw, "# HELP idlekingdom_resource Current resource amount.\n")
		fmt.Fprintf(rw, "# TYPE idlekingdom_resource gauge\n")
		for _, res := range ledger.AllResources() {
			fmt.Fprintf(rw, "idlekingdom_resource{resource=%q} %g\n", res.String(), s.Resources.Get(res))
		}
		fmt.Fprintf(rw, "# HELP idlekingdom_rate Net production per second.\n")
		fmt.Fprintf(rw, "# TYPE idlekingdom_rate gauge\n")
		for _, res := range ledger.AllResources() {
			fmt.Fprintf(rw, "idlekingdom_rate{resource=%q} %g\n", res.String(), rates.Get(res))
		}
		fmt.Fprintf(rw, "# HELP idlekingdom_buildings Owned buildings.\n")
		fmt.Fprintf(rw, "# TYPE idlekingdom_buildings gauge\n")
		for _, b := range ledger.AllBuildings() {
			fmt.Fprintf(rw, "idlekingdom_buildings{building=%q} %d\n", b.String(), s.BuildingCounts.Get(b))
		}
		fmt.Fprintf(rw, "# HELP idlekingdom_active_loops Running loop actions.\n")
		fmt.Fprintf(rw, "# TYPE idlekingdom_active_loops gauge\n")
		fmt.Fprintf(rw, "idlekingdom_active_loops %d\n", s.ActiveLoops())
		if db != nil {
			fmt.Fprintf(rw, "# HELP idlekingdom_event_index_dropped_total Events dropped by the sqlite index writer.\n")
			fmt.Fprintf(rw, "# TYPE idlekingdom_event_index_dropped_total counter\n")
			fmt.Fprintf(rw, "idlekingdom_event_index_dropped_total %d\n", db.Dropped())
		}
	}
}
