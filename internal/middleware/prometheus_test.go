// Trawler - Multi-Source Community Post Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trawler

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPrometheusPassesThrough(t *testing.T) {
	h := Prometheus(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/test", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("status = %d", rec.Code)
	}
	if rec.Body.String() != "short and stout" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestStatusRecorderDefaultsToOK(t *testing.T) {
	rec := httptest.NewRecorder()
	wrapper := &statusRecorder{ResponseWriter: rec, statusCode: http.StatusOK}
	_, _ = wrapper.Write([]byte("implicit 200"))

	if wrapper.statusCode != http.StatusOK {
		t.Errorf("statusCode = %d", wrapper.statusCode)
	}
}
