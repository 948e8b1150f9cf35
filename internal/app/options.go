package service

import (
	"github.com/okian/dpsmeter/internal/adapters/chartpng"
	"github.com/okian/dpsmeter/internal/adapters/ingest"
	"github.com/okian/dpsmeter/internal/adapters/repository"
	"github.com/okian/dpsmeter/internal/domain/parser"
	"github.com/okian/dpsmeter/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithStore injects the file store. Start creates an in-memory store otherwise.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithMaxFiles caps the number of files the default store accepts.
func WithMaxFiles(n int) Option {
	return func(s *Service) {
		if n >= 0 {
			s.maxFiles = n
		}
	}
}

// WithParser sets the parser used for every rebuild.
func WithParser(p *parser.Parser) Option {
	return func(s *Service) {
		if p != nil {
			s.parser = p
		}
	}
}

// WithReader sets the reader used for uploads and preloads.
func WithReader(r *ingest.Reader) Option {
	return func(s *Service) {
		if r != nil {
			s.reader = r
		}
	}
}

// WithRenderer sets the PNG chart renderer.
func WithRenderer(r *chartpng.Renderer) Option {
	return func(s *Service) {
		if r != nil {
			s.renderer = r
		}
	}
}

// WithDefaults sets the initial time mode and bucket interval.
func WithDefaults(normalize bool, intervalSeconds int) Option {
	return func(s *Service) {
		s.normalize = normalize
		s.intervalSeconds = intervalSeconds
	}
}
