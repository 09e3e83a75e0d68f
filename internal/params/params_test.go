package params

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/sydlexius/festival-scraper/internal/database"
)

func TestEnvName(t *testing.T) {
	tests := map[string]string{
		SpotifyClientID:     "FS_PARAM_SPOTIFY_CLIENT_ID",
		SpotifyClientSecret: "FS_PARAM_SPOTIFY_CLIENT_SECRET",
		GitHubToken:         "FS_PARAM_GITHUB_TOKEN",
	}
	for name, want := range tests {
		if got := EnvName(name); got != want {
			t.Errorf("EnvName(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestEnvStore(t *testing.T) {
	t.Setenv("FS_PARAM_SPOTIFY_CLIENT_ID", "id-123")
	t.Setenv("FS_PARAM_GITHUB_TOKEN", "")

	s := NewEnvStore()
	got, err := s.GetParameters(context.Background(), []string{SpotifyClientID})
	if err != nil {
		t.Fatalf("GetParameters: %v", err)
	}
	if got[SpotifyClientID] != "id-123" {
		t.Errorf("client id = %q", got[SpotifyClientID])
	}

	_, err = s.GetParameters(context.Background(), []string{SpotifyClientID, GitHubToken})
	var nf *ErrParameterNotFound
	if !errors.As(err, &nf) || nf.Name != GitHubToken {
		t.Fatalf("expected not found for %s, got %v", GitHubToken, err)
	}
}

func TestSealer_RoundTrip(t *testing.T) {
	s, key, err := NewSealer("")
	if err != nil {
		t.Fatalf("NewSealer: %v", err)
	}
	sealed, err := s.Seal(GitHubToken, "ghp_secret")
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if strings.Contains(sealed, "ghp_secret") {
		t.Error("sealed value leaks plaintext")
	}

	again, _, err := NewSealer(key)
	if err != nil {
		t.Fatalf("NewSealer(key): %v", err)
	}
	got, err := again.Open(GitHubToken, sealed)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got != "ghp_secret" {
		t.Errorf("Open = %q", got)
	}
}

func TestSealer_BoundToName(t *testing.T) {
	s, _, err := NewSealer("")
	if err != nil {
		t.Fatalf("NewSealer: %v", err)
	}
	sealed, err := s.Seal(SpotifyClientID, "value")
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if _, err := s.Open(SpotifyClientSecret, sealed); err == nil {
		t.Error("expected error opening under a different name")
	}
}

func TestNewSealer_BadKey(t *testing.T) {
	for _, key := range []string{"not-base64!", "c2hvcnQ="} {
		if _, _, err := NewSealer(key); err == nil {
			t.Errorf("NewSealer(%q) succeeded, want error", key)
		}
	}
}

func newTestSQLStore(t *testing.T) *SQLStore {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open(ctx, database.MemoryPath)
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := database.Migrate(ctx, db); err != nil {
		t.Fatalf("migrating: %v", err)
	}
	sealer, _, err := NewSealer("")
	if err != nil {
		t.Fatalf("NewSealer: %v", err)
	}
	return NewSQLStore(db, sealer)
}

func TestSQLStore_PutAndGet(t *testing.T) {
	s := newTestSQLStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, SpotifyClientID, "first"); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Put(ctx, SpotifyClientID, "second"); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	if err := s.Put(ctx, SpotifyClientSecret, "shh"); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := s.GetParameters(ctx, []string{SpotifyClientID, SpotifyClientSecret})
	if err != nil {
		t.Fatalf("GetParameters: %v", err)
	}
	if got[SpotifyClientID] != "second" || got[SpotifyClientSecret] != "shh" {
		t.Errorf("GetParameters = %v", got)
	}

	var raw string
	if err := s.db.QueryRowContext(ctx, `SELECT value FROM parameters WHERE name = ?`, SpotifyClientSecret).Scan(&raw); err != nil {
		t.Fatalf("reading raw value: %v", err)
	}
	if raw == "shh" {
		t.Error("value stored in plaintext")
	}
}

func TestSQLStore_Missing(t *testing.T) {
	s := newTestSQLStore(t)

	_, err := s.GetParameters(context.Background(), []string{GitHubToken})
	var nf *ErrParameterNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected ErrParameterNotFound, got %v", err)
	}
}

func TestSQLStore_RequiresName(t *testing.T) {
	if err := newTestSQLStore(t).Put(context.Background(), "", "v"); err == nil {
		t.Fatal("expected error for empty name")
	}
}

type fakeSecretClient struct {
	mu     sync.Mutex
	values map[string]string
	errors map[string]error
	calls  []string
}

func (f *fakeSecretClient) AccessSecretVersion(_ context.Context, req *secretmanagerpb.AccessSecretVersionRequest, _ ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req.GetName())
	if err, ok := f.errors[req.GetName()]; ok {
		return nil, err
	}
	if v, ok := f.values[req.GetName()]; ok {
		return &secretmanagerpb.AccessSecretVersionResponse{
			Payload: &secretmanagerpb.SecretPayload{Data: []byte(v)},
		}, nil
	}
	return nil, status.Error(codes.NotFound, "not found")
}

func (f *fakeSecretClient) Close() error { return nil }

func TestSecretManagerStore(t *testing.T) {
	fake := &fakeSecretClient{
		values: map[string]string{
			"projects/festivals/secrets/spotify-client-id/versions/latest": "sm-id",
		},
		errors: map[string]error{
			"projects/festivals/secrets/github-token/versions/latest": status.Error(codes.PermissionDenied, "denied"),
		},
	}
	s := &SecretManagerStore{client: fake, project: "festivals"}
	ctx := context.Background()

	got, err := s.GetParameters(ctx, []string{SpotifyClientID})
	if err != nil {
		t.Fatalf("GetParameters: %v", err)
	}
	if got[SpotifyClientID] != "sm-id" {
		t.Errorf("client id = %q", got[SpotifyClientID])
	}

	var nf *ErrParameterNotFound
	if _, err := s.GetParameters(ctx, []string{SpotifyClientSecret}); !errors.As(err, &nf) {
		t.Errorf("expected ErrParameterNotFound, got %v", err)
	}

	_, err = s.GetParameters(ctx, []string{GitHubToken})
	if err == nil || errors.As(err, &nf) {
		t.Errorf("expected access error, got %v", err)
	}
	if status.Code(errors.Unwrap(err)) != codes.PermissionDenied {
		t.Errorf("cause code = %v", status.Code(errors.Unwrap(err)))
	}
}

func TestSecretID(t *testing.T) {
	if got := SecretID(SpotifyClientSecret); got != "spotify-client-secret" {
		t.Errorf("SecretID = %q", got)
	}
}
