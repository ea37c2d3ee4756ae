package shared

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestHTTPFeedPublish(t *testing.T) {
	t.Run("Posts Payload To Produce Endpoint", func(t *testing.T) {
		var gotTopic, gotPayload string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotTopic = r.URL.Query().Get("topic")
			body, _ := io.ReadAll(r.Body)
			var req map[string]string
			json.Unmarshal(body, &req)
			gotPayload = req["payload"]
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		feed := NewHTTPFeed(server.URL)
		if err := feed.Publish("aviary_aggregates", []byte(`{"cage_id":"3"}`)); err != nil {
			t.Fatalf("Publish failed: %v", err)
		}
		if gotTopic != "aviary_aggregates" {
			t.Errorf("Expected topic aviary_aggregates, got %s", gotTopic)
		}
		if gotPayload != `{"cage_id":"3"}` {
			t.Errorf("Unexpected payload %q", gotPayload)
		}
	})

	t.Run("Retries Then Succeeds", func(t *testing.T) {
		var calls int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&calls, 1) < 3 {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		feed := NewHTTPFeed(server.URL)
		if err := feed.Publish("t", []byte("x")); err != nil {
			t.Fatalf("Expected retry to succeed, got %v", err)
		}
		if atomic.LoadInt32(&calls) != 3 {
			t.Errorf("Expected 3 attempts, got %d", calls)
		}
	})

	t.Run("Gives Up After Max Retries", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		feed := NewHTTPFeed(server.URL)
		if err := feed.Publish("t", []byte("x")); err == nil {
			t.Error("Expected an error after exhausting retries")
		}
	})
}
