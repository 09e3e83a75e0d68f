package params

import (
	"context"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type secretAccessor interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
	Close() error
}

// SecretManagerStore reads the latest version of Google Secret Manager
// secrets. "/spotify/client-id" is read from the secret "spotify-client-id".
type SecretManagerStore struct {
	client  secretAccessor
	project string
}

// NewSecretManagerStore connects to Secret Manager with default credentials.
func NewSecretManagerStore(ctx context.Context, project string) (*SecretManagerStore, error) {
	project = strings.TrimSpace(project)
	if project == "" {
		return nil, fmt.Errorf("secret manager: project is required")
	}
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating secret manager client: %w", err)
	}
	return &SecretManagerStore{client: client, project: project}, nil
}

// SecretID returns the secret that holds parameter name.
func SecretID(name string) string {
	return strings.ReplaceAll(strings.Trim(name, "/"), "/", "-")
}

func (s *SecretManagerStore) get(ctx context.Context, name string) (string, error) {
	ref := fmt.Sprintf("projects/%s/secrets/%s/versions/latest", s.project, SecretID(name))
	resp, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: ref})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return "", &ErrParameterNotFound{Name: name}
		}
		return "", fmt.Errorf("accessing %s: %w", ref, err)
	}
	if resp.GetPayload() == nil {
		return "", &ErrParameterNotFound{Name: name}
	}
	return string(resp.GetPayload().GetData()), nil
}

// GetParameters implements Store.
func (s *SecretManagerStore) GetParameters(ctx context.Context, names []string) (map[string]string, error) {
	return getEach(ctx, names, s.get)
}

// Close releases the underlying client.
func (s *SecretManagerStore) Close() error {
	return s.client.Close()
}
