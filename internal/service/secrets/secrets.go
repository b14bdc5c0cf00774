package secrets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"VerifyFlow/internal/lib/sl"
)

// DevFallbackSalt is returned when no secret can be resolved. It is never suitable for production.
const DevFallbackSalt = "fallback-salt-for-development"

var ErrSecretNotFound = errors.New("secret not found")

type Store interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// EnvStore reads secrets from environment variables, "otp-salt" becomes OTP_SALT.
type EnvStore struct {
	lookup func(string) (string, bool)
}

func NewEnvStore() *EnvStore {
	return &EnvStore{lookup: os.LookupEnv}
}

func EnvName(name string) string {
	return strings.ToUpper(strings.NewReplacer("-", "_", ".", "_", "/", "_").Replace(name))
}

func (s *EnvStore) GetSecret(_ context.Context, name string) (string, error) {
	v, ok := s.lookup(EnvName(name))
	if !ok || v == "" {
		return "", fmt.Errorf("%w: %s", ErrSecretNotFound, name)
	}
	return v, nil
}

// Resolve fetches name from store and fails closed to the flagged fallback.
// The second return value reports whether the fallback was used.
func Resolve(ctx context.Context, store Store, name string, log *slog.Logger) (string, bool) {
	log = log.With(sl.Module("secrets"), slog.String("secret", name))
	if store == nil {
		log.Warn("no secret store configured, using development fallback")
		return DevFallbackSalt, true
	}
	value, err := store.GetSecret(ctx, name)
	if err != nil || value == "" {
		log.Warn("secret unavailable, using development fallback", sl.Err(err))
		return DevFallbackSalt, true
	}
	log.Info("secret loaded", slog.Int("length", len(value)))
	return value, false
}
