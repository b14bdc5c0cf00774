package auth

import (
	"VerifyFlow/entity"
	"VerifyFlow/internal/lib/sl"
	"crypto/subtle"
	"fmt"
	"log/slog"
)

type Repository interface {
	CheckApiKey(key string) (string, error)
}

// Service authenticates API clients by bearer key.
type Service struct {
	repository Repository
	keys       []string
	log        *slog.Logger
}

func NewAuthService(logger *slog.Logger, keys []string) *Service {
	return &Service{
		keys: keys,
		log:  logger.With(sl.Module("auth-service")),
	}
}

func (s *Service) SetRepository(repository Repository) {
	s.repository = repository
}

// AuthenticateByToken checks static keys first, then the key repository.
func (s *Service) AuthenticateByToken(token string) (*entity.UserAuth, error) {
	if token == "" {
		return nil, fmt.Errorf("empty token")
	}
	for i, key := range s.keys {
		if key != "" && subtle.ConstantTimeCompare([]byte(key), []byte(token)) == 1 {
			return &entity.UserAuth{Name: fmt.Sprintf("static-%d", i), Token: token}, nil
		}
	}
	if s.repository == nil {
		return nil, fmt.Errorf("invalid token")
	}
	name, err := s.repository.CheckApiKey(token)
	if err != nil {
		s.log.Debug("api key lookup", sl.Secret("token", token), sl.Err(err))
		return nil, fmt.Errorf("invalid token")
	}
	return &entity.UserAuth{Name: name, Token: token}, nil
}
