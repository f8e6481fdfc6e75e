package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nugget-stub/nugget/internal/config"
)

func handlerReturning(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}
}

func TestLiteralSegmentOutranksParamSegment(t *testing.T) {
	routes := []config.Route{
		{Method: "GET", Path: "/users/{id}"},
		{Method: "GET", Path: "/users/active"},
	}
	r := New(routes, func(route config.Route) http.HandlerFunc {
		return handlerReturning(route.Path)
	}, handlerReturning("clear"), nil)

	req := httptest.NewRequest("GET", "/users/active", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "/users/active", w.Body.String())
}

func TestParamSegmentStillMatchesOtherValues(t *testing.T) {
	routes := []config.Route{
		{Method: "GET", Path: "/users/{id}"},
		{Method: "GET", Path: "/users/active"},
	}
	r := New(routes, func(route config.Route) http.HandlerFunc {
		return handlerReturning(route.Path)
	}, handlerReturning("clear"), nil)

	req := httptest.NewRequest("GET", "/users/42", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "/users/{id}", w.Body.String())
}

func TestUnmatchedRouteIs404JSON(t *testing.T) {
	r := New(nil, func(route config.Route) http.HandlerFunc { return handlerReturning("") }, handlerReturning("clear"), nil)

	req := httptest.NewRequest("GET", "/nope", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"route not found"}`, w.Body.String())
}

func TestStateClearIsReserved(t *testing.T) {
	r := New(nil, func(route config.Route) http.HandlerFunc { return handlerReturning("") }, handlerReturning("cleared"), nil)

	req := httptest.NewRequest("POST", "/state/clear", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "cleared", w.Body.String())
}
