// Package params resolves named credentials such as catalog client secrets
// and the issue tracker token.
package params

import (
	"context"
	"fmt"
)

// Well-known parameter names.
const (
	SpotifyClientID     = "/spotify/client-id"
	SpotifyClientSecret = "/spotify/client-secret"
	GitHubToken         = "/github/token"
)

// Store resolves parameters by name. Every requested name must resolve.
type Store interface {
	GetParameters(ctx context.Context, names []string) (map[string]string, error)
}

// ErrParameterNotFound indicates a requested parameter does not exist.
type ErrParameterNotFound struct {
	Name string
}

func (e *ErrParameterNotFound) Error() string {
	return fmt.Sprintf("parameter %q not found", e.Name)
}

// getEach resolves names one at a time through get.
func getEach(ctx context.Context, names []string, get func(context.Context, string) (string, error)) (map[string]string, error) {
	out := make(map[string]string, len(names))
	for _, name := range names {
		v, err := get(ctx, name)
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}
