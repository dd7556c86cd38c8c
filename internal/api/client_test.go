package api

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rescale/rescale-browse/internal/models"
)

// TestNewClientRejectsEmptyBaseURL verifies that NewClient fails with a clear error
// when BaseURL is empty, instead of creating a broken client that produces
// "unsupported protocol scheme" errors on every request.
func TestNewClientRejectsEmptyBaseURL(t *testing.T) {
	_, err := NewClient(Config{BaseURL: "", APIKey: "test-key"})
	if err == nil {
		t.Fatal("NewClient() should return error for empty BaseURL")
	}

	if !strings.Contains(err.Error(), "API base URL is empty") {
		t.Errorf("NewClient() error = %q, want error containing 'API base URL is empty'", err.Error())
	}
}

// TestNewClientAcceptsValidBaseURL verifies NewClient works with a valid config.
func TestNewClientAcceptsValidBaseURL(t *testing.T) {
	client, err := NewClient(Config{BaseURL: "https://platform.rescale.com", APIKey: "test-key"})
	if err != nil {
		t.Fatalf("NewClient() error = %v, want nil", err)
	}
	if client == nil {
		t.Fatal("NewClient() returned nil client")
	}
}

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	client, err := NewClient(Config{
		BaseURL:           url,
		APIKey:            "secret",
		RequestsPerSecond: 1000,
		Burst:             100,
		PageSize:          2,
		RetryMax:          2,
		RetryWaitMin:      time.Millisecond,
		RetryWaitMax:      5 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestListFolderFollowsNextLinks(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if got := r.Header.Get("Authorization"); got != "Token secret" {
			t.Errorf("Authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/v3/folders/f1/contents/":
			if got := r.URL.Query().Get("page_size"); got != "2" {
				t.Errorf("page_size = %q, want 2", got)
			}
			fmt.Fprintf(w, `{"count":3,"next":"%s/page2","results":[
				{"type":"folder","item":{"id":"d1","name":"inputs"}},
				{"type":"file","item":{"id":"a1","name":"run.sh","decryptedSize":42,"dateUploaded":"2025-06-01T10:00:00Z"}}
			]}`, srv.URL)
		case "/page2":
			fmt.Fprint(w, `{"count":3,"next":null,"results":[
				{"type":"file","item":{"id":"a2","name":"out.log","decryptedSize":7}},
				{"type":"job","item":{"id":"x","name":"ignored"}}
			]}`)
		default:
			nethttp.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	var items []models.FileItem
	for item, err := range client.ListFolder(context.Background(), "f1") {
		if err != nil {
			t.Fatalf("ListFolder: %v", err)
		}
		items = append(items, item)
	}

	if len(items) != 3 {
		t.Fatalf("got %d items, want 3: %+v", len(items), items)
	}
	if !items[0].IsFolder || items[0].ID != "d1" || items[0].Size != 0 {
		t.Errorf("items[0] = %+v, want folder d1", items[0])
	}
	if items[1].Size != 42 || items[1].ModTime.IsZero() {
		t.Errorf("items[1] = %+v", items[1])
	}
	for _, it := range items {
		if it.Source != models.SourceRemote {
			t.Errorf("%s: Source = %q, want remote", it.ID, it.Source)
		}
	}
}

func TestListFolderRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		if calls.Add(1) == 1 {
			nethttp.Error(w, "try again", nethttp.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"next":null,"results":[{"type":"file","item":{"id":"a1","name":"x"}}]}`)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	n := 0
	for _, err := range client.ListFolder(context.Background(), "f1") {
		if err != nil {
			t.Fatalf("ListFolder: %v", err)
		}
		n++
	}
	if n != 1 {
		t.Errorf("got %d items, want 1", n)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("server saw %d requests, want 2", got)
	}
}

func TestListFolderNotFound(t *testing.T) {
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		nethttp.Error(w, `{"detail":"Not found."}`, nethttp.StatusNotFound)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	var gotErr error
	n := 0
	for _, err := range client.ListFolder(context.Background(), "missing") {
		if err != nil {
			gotErr = err
			continue
		}
		n++
	}
	if n != 0 {
		t.Errorf("got %d items, want 0", n)
	}
	if !errors.Is(gotErr, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", gotErr)
	}
	if errors.Is(gotErr, ErrUnauthorized) {
		t.Error("404 must not match ErrUnauthorized")
	}
	var se *StatusError
	if !errors.As(gotErr, &se) || se.StatusCode != nethttp.StatusNotFound {
		t.Errorf("Expected StatusError 404, got %v", gotErr)
	}
}

func TestFolderPageCancelledContext(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := client.FolderPage(ctx, "f1", ""); err == nil {
		t.Fatal("Expected error for cancelled context")
	}
	if calls.Load() != 0 {
		t.Error("no request should be sent once the context is done")
	}

	// A cancelled listing ends quietly.
	for _, err := range client.ListFolder(ctx, "f1") {
		t.Errorf("unexpected yield, err=%v", err)
	}
}

func TestStatusErrorUnauthorized(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", newStatusError(nethttp.StatusForbidden, []byte(" denied \n")))
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("403 should match ErrUnauthorized: %v", err)
	}
	if !strings.HasSuffix(err.Error(), "status 403: denied") {
		t.Errorf("Error() = %q", err.Error())
	}
}
