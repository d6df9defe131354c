package loki

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func captureServer(t *testing.T, status int, got *PushRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/loki/api/v1/push" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestPushEventJSON_LabelsAndTimestamp(t *testing.T) {
	var got PushRequest
	srv := captureServer(t, http.StatusNoContent, &got)
	c := NewClient(srv.URL+"/", srv.Client())

	raw := []byte(`{"id":"e1","eventType":"session.revoked","source":"sessions service","userId":"u1","createdAt":"2026-03-01T10:00:00Z"}`)
	if err := c.PushEventJSON(context.Background(), raw); err != nil {
		t.Fatalf("PushEventJSON: %v", err)
	}
	if len(got.Streams) != 1 {
		t.Fatalf("streams = %d", len(got.Streams))
	}
	s := got.Streams[0]
	if s.Stream["job"] != "monoauth" {
		t.Errorf("job = %q", s.Stream["job"])
	}
	if s.Stream["event_type"] != "session.revoked" {
		t.Errorf("event_type = %q", s.Stream["event_type"])
	}
	if s.Stream["source"] != "sessions_service" {
		t.Errorf("source should be sanitized, got %q", s.Stream["source"])
	}
	if _, ok := s.Stream["user_id"]; ok {
		t.Error("user_id must not be a stream label")
	}
	want := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC).UnixNano()
	if len(s.Values) != 1 || s.Values[0][0] != jsonInt(want) || s.Values[0][1] != string(raw) {
		t.Errorf("values = %v", s.Values)
	}
}

func TestPushEventJSON_InvalidJSONStillPushed(t *testing.T) {
	var got PushRequest
	srv := captureServer(t, http.StatusNoContent, &got)
	c := NewClient(srv.URL, srv.Client())
	if err := c.PushEventJSON(context.Background(), []byte("not json")); err != nil {
		t.Fatalf("PushEventJSON: %v", err)
	}
	if len(got.Streams) != 1 || got.Streams[0].Values[0][1] != "not json" {
		t.Errorf("streams = %+v", got.Streams)
	}
	if len(got.Streams[0].Stream) != 1 {
		t.Errorf("only job label expected, got %v", got.Streams[0].Stream)
	}
}

func TestPush_Non2xx(t *testing.T) {
	var got PushRequest
	srv := captureServer(t, http.StatusBadRequest, &got)
	c := NewClient(srv.URL, srv.Client())
	if err := c.Push(context.Background(), time.Now(), "line", nil); err == nil {
		t.Fatal("expected error on 400")
	}
}

func TestPush_EmptyURL(t *testing.T) {
	c := NewClient("  ", nil)
	if err := c.Push(context.Background(), time.Now(), "line", nil); !errors.Is(err, ErrEmptyURL) {
		t.Errorf("err = %v, want ErrEmptyURL", err)
	}
}

func jsonInt(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}
