package database

import (
	"github.com/nanikabot/nanika/internal/database/service"
	"go.uber.org/zap"
)

// Service provides access to all business logic services.
type Service struct {
	prefix *service.PrefixService
	blame  *service.BlameService
}

// NewService creates a new service instance with all services.
func NewService(repository *Repository, defaultPrefixes []string, logger *zap.Logger) *Service {
	return &Service{
		prefix: service.NewPrefix(repository.Prefix(), defaultPrefixes, logger),
		blame:  service.NewBlame(repository.Blame(), logger),
	}
}

// Prefix returns the guild prefix service.
func (s *Service) Prefix() *service.PrefixService {
	return s.prefix
}

// Blame returns the blame service.
func (s *Service) Blame() *service.BlameService {
	return s.blame
}
