package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMiddlewarePassesThrough(t *testing.T) {
	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/games", nil))

	if w.Code != http.StatusTeapot {
		t.Fatalf("expected status to pass through, got %d", w.Code)
	}
}

func TestMiddlewareSkipsWebSocketUpgrades(t *testing.T) {
	var sawRecorder bool
	handler := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawRecorder = w.(*responseRecorder)
	}))

	r := httptest.NewRequest("GET", "/ws/lobby/1", nil)
	r.Header.Set("Upgrade", "websocket")
	handler.ServeHTTP(httptest.NewRecorder(), r)

	if sawRecorder {
		t.Fatalf("expected upgrade requests to bypass the recorder")
	}
}

func TestHandlerServesMetrics(t *testing.T) {
	TransitionCompleted("DEPLOYMENT")
	WSConnected("lobby")
	WSDisconnected("lobby")

	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 from metrics endpoint, got %d", w.Code)
	}
	if w.Body.Len() == 0 {
		t.Fatalf("expected metrics output")
	}
}
