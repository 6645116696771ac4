package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequestLoggerMiddlewarePreservesFlusher(t *testing.T) {
	var sawFlusher bool
	handler := RequestLoggerMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		sawFlusher = ok
		w.WriteHeader(http.StatusOK)
		if ok {
			flusher.Flush()
		}
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stream", nil))

	if !sawFlusher {
		t.Fatal("expected the wrapped writer to still satisfy http.Flusher")
	}
	if !rec.Flushed {
		t.Error("expected Flush to reach the underlying writer")
	}
}

func TestRequestLoggerMiddlewareRecordsStatus(t *testing.T) {
	handler := RequestLoggerMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "missing", http.StatusNotFound)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
}
