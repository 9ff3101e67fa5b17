package matter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPClientUserToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Fatalf("unexpected method %s", r.Method)
		}
		if r.URL.Path != "/elements/v1/auth/user_token" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer mk_secret" {
			t.Fatalf("expected auth header, got %s", got)
		}
		if got := r.Header.Get("Accept"); got != "application/json" {
			t.Fatalf("expected json accept header, got %s", got)
		}
		_, _ = w.Write([]byte(`{"token":"t1"}`))
	}))
	t.Cleanup(server.Close)

	client, err := NewHTTPClient(HTTPConfig{BaseURL: server.URL + "/", APIKey: "mk_secret"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	token, err := client.UserToken(context.Background())
	if err != nil {
		t.Fatalf("user token: %v", err)
	}
	if token != "t1" {
		t.Fatalf("expected t1, got %q", token)
	}
}

func TestHTTPClientRemoteError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid api key", http.StatusUnauthorized)
	}))
	t.Cleanup(server.Close)

	client, _ := NewHTTPClient(HTTPConfig{BaseURL: server.URL, APIKey: "bad"})
	_, err := client.UserToken(context.Background())
	var remote *RemoteError
	if !errors.As(err, &remote) {
		t.Fatalf("expected RemoteError, got %v", err)
	}
	if remote.StatusCode != http.StatusUnauthorized || remote.Body != "invalid api key" {
		t.Fatalf("unexpected remote error %+v", remote)
	}
}

func TestHTTPClientMissingToken(t *testing.T) {
	for _, body := range []string{`{}`, `{"token":""}`} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		}))
		client, _ := NewHTTPClient(HTTPConfig{BaseURL: server.URL, APIKey: "k"})
		_, err := client.UserToken(context.Background())
		server.Close()
		if !errors.Is(err, ErrMissingToken) {
			t.Fatalf("body %s: expected ErrMissingToken, got %v", body, err)
		}
	}
}

func TestHTTPClientMalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	t.Cleanup(server.Close)

	client, _ := NewHTTPClient(HTTPConfig{BaseURL: server.URL, APIKey: "k"})
	if _, err := client.UserToken(context.Background()); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestHTTPClientHonorsCancellation(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(server.Close)
	t.Cleanup(func() { close(release) })

	client, _ := NewHTTPClient(HTTPConfig{BaseURL: server.URL, APIKey: "k"})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := client.UserToken(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestNewHTTPClientDefaults(t *testing.T) {
	if _, err := NewHTTPClient(HTTPConfig{}); err == nil {
		t.Fatalf("expected error without api key")
	}
	client, err := NewHTTPClient(HTTPConfig{APIKey: "k"})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if client.baseURL != DefaultBaseURL {
		t.Fatalf("expected default base url, got %s", client.baseURL)
	}
	if client.client.Timeout != 10*time.Second {
		t.Fatalf("expected default timeout, got %s", client.client.Timeout)
	}
}
