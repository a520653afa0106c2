package logging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestTransport_LogsRequest(t *testing.T) {
	logs := observe(t)

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer ts.Close()

	client := &http.Client{Transport: &Transport{}}
	req, _ := http.NewRequest("GET", ts.URL+"/api/files", nil)
	req.Header.Set(RequestIDHeader, "req-1")

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	entries := logs.FilterMessage("request completed").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["request_id"] != "req-1" {
		t.Errorf("expected request_id req-1, got %v", fields["request_id"])
	}
	if fields["path"] != "/api/files" {
		t.Errorf("expected path /api/files, got %v", fields["path"])
	}
	if fields["status"] != int64(http.StatusTeapot) {
		t.Errorf("expected status 418, got %v", fields["status"])
	}
}

func TestWithRequestID(t *testing.T) {
	logs := observe(t)

	ctx := WithRequestID(context.Background(), "abc")
	WithContext(ctx).Info("hello")

	all := logs.All()
	if len(all) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(all))
	}
	if all[0].ContextMap()["request_id"] != "abc" {
		t.Errorf("expected request_id abc, got %v", all[0].ContextMap()["request_id"])
	}
}

func TestInit_Level(t *testing.T) {
	prev := globalLogger
	t.Cleanup(func() {
		globalLogger = prev
		globalLevel.SetLevel(zap.WarnLevel)
	})

	if err := Init(Config{Level: "debug", Format: "json"}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if globalLevel.Level() != zap.DebugLevel {
		t.Errorf("expected debug level, got %s", globalLevel.Level())
	}
	if err := Init(Config{Level: "not-a-level"}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if globalLevel.Level() != zap.WarnLevel {
		t.Errorf("invalid level should fall back to warn, got %s", globalLevel.Level())
	}
}

func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	prev := globalLogger
	globalLogger = zap.New(core)
	t.Cleanup(func() { globalLogger = prev })
	return logs
}
