package secrets

import (
	"context"
	"encoding/base64"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/secretmanager/v1"
)

// GCPStore reads the latest version of a secret from Google Secret Manager.
type GCPStore struct {
	project string
	service *secretmanager.Service
}

func NewGCPStore(ctx context.Context, project, credentialsFile string) (*GCPStore, error) {
	if project == "" {
		return nil, fmt.Errorf("gcp project is required")
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	svc, err := secretmanager.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("secret manager client: %w", err)
	}
	return &GCPStore{project: project, service: svc}, nil
}

func (s *GCPStore) VersionName(name string) string {
	return fmt.Sprintf("projects/%s/secrets/%s/versions/latest", s.project, name)
}

func (s *GCPStore) GetSecret(ctx context.Context, name string) (string, error) {
	resp, err := s.service.Projects.Secrets.Versions.Access(s.VersionName(name)).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("access secret %s: %w", name, err)
	}
	if resp.Payload == nil || resp.Payload.Data == "" {
		return "", fmt.Errorf("%w: %s", ErrSecretNotFound, name)
	}
	raw, err := base64.StdEncoding.DecodeString(resp.Payload.Data)
	if err != nil {
		return "", fmt.Errorf("decode secret %s: %w", name, err)
	}
	return string(raw), nil
}
