package github

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func loadFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("loading fixture %s: %v", name, err)
	}
	return data
}

type recordedRequest struct {
	Method string
	Path   string
	Body   []byte
}

// fakeTracker serves the issues endpoints of a single repository.
type fakeTracker struct {
	t            *testing.T
	listBody     []byte
	listStatus   int
	createStatus int
	updateStatus int

	mu       sync.Mutex
	requests []recordedRequest
}

func newFakeTracker(t *testing.T) *fakeTracker {
	return &fakeTracker{
		t:            t,
		listBody:     loadFixture(t, "issues_open.json"),
		listStatus:   http.StatusOK,
		createStatus: http.StatusCreated,
		updateStatus: http.StatusOK,
	}
}

func (f *fakeTracker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer gh-token" {
		f.t.Errorf("wrong auth header: %q", r.Header.Get("Authorization"))
	}
	if r.Header.Get("Accept") != "application/vnd.github+json" {
		f.t.Errorf("wrong accept header: %q", r.Header.Get("Accept"))
	}
	if r.Header.Get("X-GitHub-Api-Version") != "2022-11-28" {
		f.t.Errorf("wrong api version header: %q", r.Header.Get("X-GitHub-Api-Version"))
	}

	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{Method: r.Method, Path: r.URL.Path, Body: body})
	f.mu.Unlock()

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/repos/acme/festivals/issues":
		if r.URL.Query().Get("state") != "open" {
			f.t.Errorf("state = %q, want open", r.URL.Query().Get("state"))
		}
		w.WriteHeader(f.listStatus)
		_, _ = w.Write(f.listBody)
	case r.Method == http.MethodPost && r.URL.Path == "/repos/acme/festivals/issues":
		w.WriteHeader(f.createStatus)
		_, _ = w.Write([]byte(`{"id":1,"number":99}`))
	case r.Method == http.MethodPatch:
		w.WriteHeader(f.updateStatus)
		_, _ = w.Write([]byte(`{}`))
	default:
		f.t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeTracker) countMethod(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.requests {
		if r.Method == method {
			n++
		}
	}
	return n
}

func (f *fakeTracker) last(method string) recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.requests) - 1; i >= 0; i-- {
		if f.requests[i].Method == method {
			return f.requests[i]
		}
	}
	return recordedRequest{}
}

func newTestClient(t *testing.T, f *fakeTracker, assignees ...string) *Client {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	cfg := Config{BaseURL: srv.URL, Owner: "acme", Repo: "festivals", Token: "gh-token", Assignees: assignees}
	c, err := NewWithHTTPClient(context.Background(), cfg, srv.Client(), testLogger())
	if err != nil {
		t.Fatalf("NewWithHTTPClient: %v", err)
	}
	return c
}

func TestNew_LoadsSnapshot(t *testing.T) {
	c := newTestClient(t, newFakeTracker(t))

	if !c.HasOpenTicket("VADER") {
		t.Error("expected ticket for vader")
	}
	if !c.HasOpenTicket("nervosa: live") {
		t.Error("expected ticket for a name containing a colon")
	}
	if c.HasOpenTicket("Bloodbath") {
		t.Error("pull requests should not count as tickets")
	}
	if got := len(c.OpenTickets()); got != 2 {
		t.Errorf("open tickets = %d, want 2", got)
	}
}

func TestNew_ListFailure(t *testing.T) {
	f := newFakeTracker(t)
	f.listStatus = http.StatusForbidden
	f.listBody = []byte(`{"message":"Bad credentials"}`)

	srv := httptest.NewServer(f)
	defer srv.Close()

	cfg := Config{BaseURL: srv.URL, Owner: "acme", Repo: "festivals", Token: "gh-token"}
	_, err := NewWithHTTPClient(context.Background(), cfg, srv.Client(), testLogger())
	var te *ErrTicket
	if !errors.As(err, &te) {
		t.Fatalf("expected *ErrTicket, got %v", err)
	}
	if te.StatusCode != http.StatusForbidden || te.Body != `{"message":"Bad credentials"}` {
		t.Errorf("unexpected error detail: %+v", te)
	}
}

func TestNew_RequiresRepository(t *testing.T) {
	if _, err := New(context.Background(), Config{Owner: "acme"}, testLogger()); err == nil {
		t.Fatal("expected error without repo")
	}
}

func TestCreateIssue(t *testing.T) {
	f := newFakeTracker(t)
	c := newTestClient(t, f, "octocat")

	if err := c.CreateIssue(context.Background(), "Bloodbath"); err != nil {
		t.Fatalf("CreateIssue: %v", err)
	}

	req := f.last(http.MethodPost)
	var got createIssueRequest
	if err := json.Unmarshal(req.Body, &got); err != nil {
		t.Fatalf("decoding create payload: %v", err)
	}
	if got.Title != "Search for ArtistInformation manually: Bloodbath" {
		t.Errorf("title = %q", got.Title)
	}
	if got.Body != "Could not find ArtistInformation for Bloodbath. Please look them up manually." {
		t.Errorf("body = %q", got.Body)
	}
	if len(got.Assignees) != 1 || got.Assignees[0] != "octocat" {
		t.Errorf("assignees = %v", got.Assignees)
	}
}

func TestCreateIssue_SkipsOpenTicket(t *testing.T) {
	f := newFakeTracker(t)
	c := newTestClient(t, f)

	if err := c.CreateIssue(context.Background(), "vader"); err != nil {
		t.Fatalf("CreateIssue: %v", err)
	}
	if n := f.countMethod(http.MethodPost); n != 0 {
		t.Errorf("expected no create request, got %d", n)
	}
}

func TestCreateIssue_Idempotent(t *testing.T) {
	f := newFakeTracker(t)
	c := newTestClient(t, f)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := c.CreateIssue(context.Background(), "Mgła"); err != nil {
				t.Errorf("CreateIssue: %v", err)
			}
		}()
	}
	wg.Wait()

	if err := c.CreateIssue(context.Background(), "MGŁA"); err != nil {
		t.Fatalf("CreateIssue: %v", err)
	}
	if n := f.countMethod(http.MethodPost); n != 1 {
		t.Errorf("create requests = %d, want 1", n)
	}
	if c.HasOpenTicket("Mgła") {
		t.Error("snapshot must not change after creating a ticket")
	}
}

func TestCreateIssue_Failure(t *testing.T) {
	f := newFakeTracker(t)
	f.createStatus = http.StatusUnprocessableEntity
	c := newTestClient(t, f)

	err := c.CreateIssue(context.Background(), "Bloodbath")
	var te *ErrTicket
	if !errors.As(err, &te) || te.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 *ErrTicket, got %v", err)
	}

	f.createStatus = http.StatusCreated
	if err := c.CreateIssue(context.Background(), "Bloodbath"); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
	if n := f.countMethod(http.MethodPost); n != 2 {
		t.Errorf("create requests = %d, want 2", n)
	}
}

func TestCloseIssue(t *testing.T) {
	f := newFakeTracker(t)
	c := newTestClient(t, f)

	if err := c.CloseIssue(context.Background(), "Vader"); err != nil {
		t.Fatalf("CloseIssue: %v", err)
	}

	req := f.last(http.MethodPatch)
	if req.Path != "/repos/acme/festivals/issues/12" {
		t.Errorf("path = %q, want issue number 12", req.Path)
	}
	var got updateIssueRequest
	if err := json.Unmarshal(req.Body, &got); err != nil {
		t.Fatalf("decoding update payload: %v", err)
	}
	if got.State != "closed" || got.StateReason != "completed" {
		t.Errorf("payload = %+v", got)
	}
}

func TestCloseIssue_NoTicket(t *testing.T) {
	f := newFakeTracker(t)
	c := newTestClient(t, f)

	if err := c.CloseIssue(context.Background(), "Bloodbath"); err != nil {
		t.Fatalf("CloseIssue: %v", err)
	}
	if n := f.countMethod(http.MethodPatch); n != 0 {
		t.Errorf("expected no update request, got %d", n)
	}
}

func TestCloseIssue_Failure(t *testing.T) {
	f := newFakeTracker(t)
	f.updateStatus = http.StatusInternalServerError
	c := newTestClient(t, f)

	err := c.CloseIssue(context.Background(), "Vader")
	var te *ErrTicket
	if !errors.As(err, &te) || te.Op != "close issue" {
		t.Fatalf("expected close *ErrTicket, got %v", err)
	}
}

func TestNew_FollowsLinkPages(t *testing.T) {
	var srv *httptest.Server
	var gets atomic.Int32
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/repos/acme/festivals/issues" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		gets.Add(1)
		switch r.URL.Query().Get("page") {
		case "":
			w.Header().Set("Link", `<`+srv.URL+`/repos/acme/festivals/issues?state=open&per_page=100&page=2>; rel="next", <`+srv.URL+`/repos/acme/festivals/issues?state=open&per_page=100&page=2>; rel="last"`)
			_ = json.NewEncoder(w).Encode([]issue{{ID: 1, Number: 1, Title: FormatTitle("Vader")}})
		case "2":
			w.Header().Set("Link", `<`+srv.URL+`/repos/acme/festivals/issues?state=open&per_page=100&page=1>; rel="prev"`)
			_ = json.NewEncoder(w).Encode([]issue{{ID: 2, Number: 2, Title: FormatTitle("Mgła")}})
		default:
			t.Errorf("unexpected page %q", r.URL.Query().Get("page"))
		}
	}))
	t.Cleanup(srv.Close)

	cfg := Config{BaseURL: srv.URL, Owner: "acme", Repo: "festivals", Token: "gh-token"}
	c, err := NewWithHTTPClient(context.Background(), cfg, srv.Client(), testLogger())
	if err != nil {
		t.Fatalf("NewWithHTTPClient: %v", err)
	}
	if n := gets.Load(); n != 2 {
		t.Errorf("expected 2 list requests, got %d", n)
	}
	if !c.HasOpenTicket("Vader") || !c.HasOpenTicket("mgła") {
		t.Errorf("snapshot missing a page: %+v", c.OpenTickets())
	}
}

func TestNextLink(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"", ""},
		{`<https://api.github.com/x?page=2>; rel="next", <https://api.github.com/x?page=5>; rel="last"`, "https://api.github.com/x?page=2"},
		{`<https://api.github.com/x?page=1>; rel="prev"`, ""},
	}
	for _, tt := range tests {
		if got := nextLink(tt.header); got != tt.want {
			t.Errorf("nextLink(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}
