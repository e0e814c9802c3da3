package sidecar

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

type record struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := New(0, "accounts", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()), WithMaxRetries(1))
	return c, srv
}

func TestGetDecodesStoredValue(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			t.Errorf("unexpected method %s", req.Method)
		}
		if req.URL.Path != "/v1.0/state/accounts/acc-1" {
			t.Errorf("unexpected path %s", req.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(record{ID: "acc-1", Email: "a@x.com"})
	}))

	var got record
	if err := c.Get(context.Background(), "acc-1", &got); err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got.ID != "acc-1" || got.Email != "a@x.com" {
		t.Fatalf("unexpected record: %+v", got)
	}
}

func TestGetMissingKeyReportsNotFound(t *testing.T) {
	for name, status := range map[string]int{"404": http.StatusNotFound, "204 empty body": http.StatusNoContent} {
		t.Run(name, func(t *testing.T) {
			c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				w.WriteHeader(status)
			}))
			var got record
			if err := c.Get(context.Background(), "missing", &got); !errors.Is(err, ErrKeyNotFound) {
				t.Fatalf("expected ErrKeyNotFound, got %v", err)
			}
		})
	}
}

func TestGetMalformedBodyDegradesToNotFound(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		_, _ = io.WriteString(w, "{not json")
	}))
	var got record
	if err := c.Get(context.Background(), "acc-1", &got); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
}

func TestSetPostsKeyValuePair(t *testing.T) {
	var body []byte
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost || req.URL.Path != "/v1.0/state/accounts" {
			t.Errorf("unexpected request %s %s", req.Method, req.URL.Path)
		}
		body, _ = io.ReadAll(req.Body)
		w.WriteHeader(http.StatusNoContent)
	}))

	if err := c.Set(context.Background(), "acc-1", record{ID: "acc-1", Email: "a@x.com"}); err != nil {
		t.Fatalf("Set returned error: %v", err)
	}
	var pairs []struct {
		Key   string `json:"key"`
		Value record `json:"value"`
	}
	if err := json.Unmarshal(body, &pairs); err != nil {
		t.Fatalf("unexpected write body %s: %v", body, err)
	}
	if len(pairs) != 1 || pairs[0].Key != "acc-1" || pairs[0].Value.Email != "a@x.com" {
		t.Fatalf("unexpected pairs: %+v", pairs)
	}
}

func TestDeleteTargetsKey(t *testing.T) {
	var path, method string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		path, method = req.URL.Path, req.Method
		w.WriteHeader(http.StatusNoContent)
	}))
	if err := c.Delete(context.Background(), "acc-1"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if method != http.MethodDelete || path != "/v1.0/state/accounts/acc-1" {
		t.Fatalf("unexpected request %s %s", method, path)
	}
}

func TestQueryReturnsRawResults(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/v1.0-alpha1/state/accounts/query" {
			t.Errorf("unexpected path %s", req.URL.Path)
		}
		body, _ := io.ReadAll(req.Body)
		var payload struct {
			Filter json.RawMessage `json:"filter"`
		}
		if err := json.Unmarshal(body, &payload); err != nil || len(payload.Filter) == 0 {
			t.Errorf("query body missing filter: %s", body)
		}
		_, _ = io.WriteString(w, `{"results":[{"data":{"id":"a"}},{"data":{"id":"b"}}]}`)
	}))

	raws, err := c.Query(context.Background(), All())
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if len(raws) != 2 {
		t.Fatalf("expected 2 results, got %d", len(raws))
	}
}

func TestQueryMalformedBodyDegradesToEmpty(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		_, _ = io.WriteString(w, "oops")
	}))
	raws, err := c.Query(context.Background(), All())
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if len(raws) != 0 {
		t.Fatalf("expected no results, got %d", len(raws))
	}
}

func TestTransientServerErrorIsRetried(t *testing.T) {
	var calls atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(record{ID: "acc-1"})
	}))

	var got record
	if err := c.Get(context.Background(), "acc-1", &got); err != nil {
		t.Fatalf("Get returned error after retry: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls.Load())
	}
}

func TestHealthReportsSidecarStatus(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/v1.0/healthz" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	if err := c.Health(context.Background()); err != nil {
		t.Fatalf("Health returned error: %v", err)
	}
}
