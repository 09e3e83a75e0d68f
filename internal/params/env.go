package params

import (
	"context"
	"os"
	"strings"
)

// EnvStore reads parameters from FS_PARAM_* environment variables. The name
// "/spotify/client-id" maps to FS_PARAM_SPOTIFY_CLIENT_ID.
type EnvStore struct {
	lookup func(string) (string, bool)
}

// NewEnvStore creates a store over the process environment.
func NewEnvStore() *EnvStore {
	return &EnvStore{lookup: os.LookupEnv}
}

// EnvName returns the variable that holds parameter name.
func EnvName(name string) string {
	n := strings.Trim(name, "/")
	n = strings.NewReplacer("/", "_", "-", "_", ".", "_").Replace(n)
	return "FS_PARAM_" + strings.ToUpper(n)
}

// GetParameters implements Store. Empty variables count as missing.
func (s *EnvStore) GetParameters(ctx context.Context, names []string) (map[string]string, error) {
	return getEach(ctx, names, func(_ context.Context, name string) (string, error) {
		v, ok := s.lookup(EnvName(name))
		if !ok || v == "" {
			return "", &ErrParameterNotFound{Name: name}
		}
		return v, nil
	})
}
