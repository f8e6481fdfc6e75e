// Package router builds the HTTP routing table: one gorilla/mux route per
// configured Route plus the reserved state-admin endpoint, registered in an
// order where literal-segment routes outrank {name}-segment routes, ties
// keeping declaration order.
package router

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"

	"github.com/gorilla/mux"

	"github.com/nugget-stub/nugget/internal/config"
)

// New builds the router. handlerFor produces the handler for one
// configured route; stateClearHandler handles the reserved
// POST /state/clear endpoint; metricsHandler, if non-nil, is mounted at
// GET /metrics.
func New(routes []config.Route, handlerFor func(config.Route) http.HandlerFunc, stateClearHandler http.HandlerFunc, metricsHandler http.Handler) *mux.Router {
	ordered := make([]config.Route, len(routes))
	copy(ordered, routes)
	sort.SliceStable(ordered, func(i, j int) bool {
		return specificityKey(ordered[i].Path) < specificityKey(ordered[j].Path)
	})

	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(notFound)
	r.HandleFunc("/state/clear", stateClearHandler).Methods("POST")
	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler).Methods("GET")
	}
	for _, route := range ordered {
		r.HandleFunc(route.Path, handlerFor(route)).Methods(route.Method)
	}
	return r
}

// notFound writes the JSON body returned when no configured route matches.
func notFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "route not found"})
}

// specificityKey builds a sort key where a literal segment sorts before a
// "{name}" segment at the same position, so the most literal route for a
// given position wins the ties that would otherwise be resolved purely by
// mux's first-registered-wins scan order.
func specificityKey(path string) string {
	var b strings.Builder
	for _, seg := range strings.Split(strings.Trim(path, "/"), "/") {
		if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}
