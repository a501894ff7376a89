package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestChatStreamDeliversChunks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat/stream" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decoding body: %v", err)
		}
		if body["message"] != "你好" {
			t.Errorf("message = %q", body["message"])
		}

		flusher := w.(http.Flusher)
		for _, part := range []string{"风", "月无", "边"} {
			fmt.Fprint(w, part)
			flusher.Flush()
		}
	}))
	defer srv.Close()

	c := &Client{baseURL: srv.URL, httpClient: srv.Client()}
	var got strings.Builder
	err := c.ChatStream(context.Background(), "你好", func(chunk []byte) error {
		got.Write(chunk)
		return nil
	})
	if err != nil {
		t.Fatalf("ChatStream() error = %v", err)
	}
	if got.String() != "风月无边" {
		t.Errorf("received %q", got.String())
	}
}

func TestChatStreamNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := &Client{baseURL: srv.URL, httpClient: srv.Client()}
	err := c.ChatStream(context.Background(), "hi", func([]byte) error { return nil })
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "500") || !strings.Contains(err.Error(), "boom") {
		t.Errorf("error %q missing status or body", err)
	}
}

func TestChatStreamNon200Success(t *testing.T) {
	// Any 2xx means the stream started; only non-2xx is an error.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		fmt.Fprint(w, "回复")
	}))
	defer srv.Close()

	c := &Client{baseURL: srv.URL, httpClient: srv.Client()}
	var got strings.Builder
	err := c.ChatStream(context.Background(), "hi", func(chunk []byte) error {
		got.Write(chunk)
		return nil
	})
	if err != nil {
		t.Fatalf("ChatStream() error = %v", err)
	}
	if got.String() != "回复" {
		t.Errorf("received %q", got.String())
	}
}

func TestChatStreamCallbackErrorStops(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher := w.(http.Flusher)
		for i := 0; i < 10; i++ {
			fmt.Fprint(w, "chunk ")
			flusher.Flush()
		}
	}))
	defer srv.Close()

	stop := errors.New("stop")
	c := &Client{baseURL: srv.URL, httpClient: srv.Client()}
	calls := 0
	err := c.ChatStream(context.Background(), "hi", func([]byte) error {
		calls++
		return stop
	})
	if !errors.Is(err, stop) {
		t.Fatalf("ChatStream() = %v, want callback error", err)
	}
	if calls != 1 {
		t.Errorf("callback ran %d times after returning an error", calls)
	}
}

func TestChatStreamContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "never read")
	}))
	defer srv.Close()

	c := &Client{baseURL: srv.URL, httpClient: srv.Client()}
	err := c.ChatStream(ctx, "hi", func([]byte) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("ChatStream() = %v, want context.Canceled", err)
	}
}
