package episodes

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const episodeJSON = `{
	"id": "a-importancia-da-contribuicao-em-open-source",
	"title": "Faladev #30 | A importância da contribuição em Open Source",
	"members": "Diego Fernandes, João Pedro, Diego Haz e Bruno Lemos",
	"published_at": "2021-01-22 19:16:21",
	"thumbnail": "https://example.com/opensource.jpg",
	"description": "<p>Nesse episódio do Faladev</p>",
	"file": {"url": "https://example.com/opensource.m4a", "type": "audio/x-m4a", "duration": 3981}
}`

func TestClient_ListLatest(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/episodes" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		gotQuery = map[string]string{"_limit": q.Get("_limit"), "_sort": q.Get("_sort"), "_order": q.Get("_order")}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("[" + episodeJSON + "]"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", time.Second)
	list, err := c.ListLatest(context.Background(), 12)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(list) != 1 || list[0].File.Duration != 3981 {
		t.Fatalf("unexpected result %+v", list)
	}
	want := map[string]string{"_limit": "12", "_sort": "published_at", "_order": "desc"}
	for k, v := range want {
		if gotQuery[k] != v {
			t.Errorf("query %s: expected %q, got %q", k, v, gotQuery[k])
		}
	}
}

func TestClient_Get(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/episodes/a-importancia-da-contribuicao-em-open-source":
			w.Write([]byte(episodeJSON))
		case "/episodes/empty":
			w.Write([]byte(`{}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)

	ep, err := c.Get(context.Background(), "a-importancia-da-contribuicao-em-open-source")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ep.File.URL != "https://example.com/opensource.m4a" {
		t.Errorf("unexpected file url %q", ep.File.URL)
	}

	for _, id := range []string{"missing", "empty", ""} {
		if _, err := c.Get(context.Background(), id); !errors.Is(err, ErrNotFound) {
			t.Errorf("id %q: expected ErrNotFound, got %v", id, err)
		}
	}
}

func TestClient_Unavailable(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}},
		{"malformed payload", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"id":`))
		}},
		{"wrong shape", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"id": "x"}`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := NewClient(srv.URL, time.Second).ListLatest(context.Background(), 12)
			if !errors.Is(err, ErrUnavailable) {
				t.Errorf("expected ErrUnavailable, got %v", err)
			}
		})
	}
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, 200*time.Millisecond).ListLatest(context.Background(), 12)
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestClient_RespectsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(srv.URL, time.Second).Get(ctx, "x")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable for cancelled context, got %v", err)
	}
}
