package startup

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
)

// Dependency is a startable/stoppable service dependency (database, kafka,
// redis, http server) with declared ordering.
type Dependency interface {
	GetName() string
	DependsOn() []string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

type Status int

const (
	StatusPending Status = iota
	StatusStarted
	StatusStopped
	StatusFailed
)

type Startup struct {
	dependencies map[string]Dependency
	order        []string
	logger       ectologger.Logger
	statuses     map[string]Status
	maxAttempts  int
}

func New(logger ectologger.Logger, maxAttempts int) *Startup {
	return &Startup{
		logger:       logger,
		dependencies: make(map[string]Dependency),
		statuses:     make(map[string]Status),
		maxAttempts:  maxAttempts,
	}
}

func (s *Startup) AddDependency(dependency Dependency) {
	s.dependencies[dependency.GetName()] = dependency
	s.order = append(s.order, dependency.GetName())
}

// Start starts every dependency in registration order, honoring DependsOn, with
// fibonacci backoff between failed attempts.
func (s *Startup) Start(ctx context.Context) error {
	var lastErr error

	a, b := 1, 1
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		s.logger.WithField("attempt", attempt).Infof("Beginning startup attempt %d", attempt)

		success := true
		for _, name := range s.order {
			if err := s.startDependency(ctx, s.dependencies[name]); err != nil {
				s.logger.WithError(err).Errorf("Startup dependency '%s' attempt %d failed", name, attempt)
				lastErr = err
				success = false
				break
			}
		}

		if success {
			return nil
		}

		if attempt >= s.maxAttempts {
			return fmt.Errorf("startup failed after %d attempts: %w", attempt, lastErr)
		}

		s.logger.Infof("Retrying in %d seconds (attempt %d/%d)", a, attempt, s.maxAttempts)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(a) * time.Second):
		}
		a, b = b, a+b
	}

	return lastErr
}

func (s *Startup) startDependency(ctx context.Context, dependency Dependency) error {
	if s.statuses[dependency.GetName()] == StatusStarted {
		return nil
	}

	for _, dependencyName := range dependency.DependsOn() {
		if s.statuses[dependencyName] != StatusStarted {
			if err := s.startDependency(ctx, s.dependencies[dependencyName]); err != nil {
				return err
			}
		}
	}

	s.logger.WithField("dependency", dependency.GetName()).Infof("Starting dependency '%s'", dependency.GetName())
	s.statuses[dependency.GetName()] = StatusPending
	if err := dependency.Start(ctx); err != nil {
		s.statuses[dependency.GetName()] = StatusFailed
		return err
	}
	s.statuses[dependency.GetName()] = StatusStarted
	return nil
}

// Stop stops dependencies in reverse registration order.
func (s *Startup) Stop(ctx context.Context) error {
	for i := len(s.order) - 1; i >= 0; i-- {
		dependency := s.dependencies[s.order[i]]
		if s.statuses[dependency.GetName()] != StatusStarted {
			continue
		}
		s.logger.WithField("dependency", dependency.GetName()).Infof("Stopping dependency '%s'", dependency.GetName())
		if err := dependency.Stop(ctx); err != nil {
			s.logger.WithError(err).WithField("dependency", dependency.GetName()).Errorf("Failed to stop dependency '%s'", dependency.GetName())
			return err
		}
		s.statuses[dependency.GetName()] = StatusStopped
	}
	return nil
}
