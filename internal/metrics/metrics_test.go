package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInstrumentRecordsRequestsTotal(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	wrapped := Instrument(next)
	req := httptest.NewRequest("GET", "/anything", nil)
	w := httptest.NewRecorder()
	wrapped.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTeapot, w.Code)

	scrape := httptest.NewRecorder()
	Handler().ServeHTTP(scrape, httptest.NewRequest("GET", "/metrics", nil))
	assert.Contains(t, scrape.Body.String(), `nugget_http_requests_total{method="GET",route="/anything",status="418"} 1`)
}

func TestHandlerServesRegisteredMetrics(t *testing.T) {
	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	assert.Contains(t, w.Body.String(), "nugget_http_inflight_requests")
}

func TestObjectStoreSizeGaugeReflectsPutsAndReset(t *testing.T) {
	SetObjectStoreSize("widget", 3)

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, req)
	assert.Contains(t, w.Body.String(), `nugget_object_store_size{type="widget"} 3`)

	ResetObjectStoreSize()

	req2 := httptest.NewRequest("GET", "/metrics", nil)
	w2 := httptest.NewRecorder()
	Handler().ServeHTTP(w2, req2)
	assert.NotContains(t, w2.Body.String(), `type="widget"`)
}
