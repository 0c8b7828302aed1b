package service

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/exp/maps"

	"github.com/openobs/validator/model"
)

// InMemoryConceptService implements ConceptRangeResolver and
// ComplexValueResolver over map-backed storage. It is the implementation
// used by tests and by the CLI when ranges come from a dictionary file.
type InMemoryConceptService struct {
	mu       sync.RWMutex
	ranges   map[int]*NumericRange
	handlers map[string]ComplexHandler
}

// NewInMemoryConceptService creates an empty in-memory concept service.
func NewInMemoryConceptService() *InMemoryConceptService {
	return &InMemoryConceptService{
		ranges:   make(map[int]*NumericRange),
		handlers: make(map[string]ComplexHandler),
	}
}

// SetNumericRange stores the numeric metadata for a concept.
func (s *InMemoryConceptService) SetNumericRange(conceptID int, r NumericRange) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ranges[conceptID] = &r
}

// ResolveNumericRange returns the stored range, or ErrNotFound.
func (s *InMemoryConceptService) ResolveNumericRange(_ context.Context, conceptID int) (*NumericRange, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.ranges[conceptID]
	if !ok {
		return nil, fmt.Errorf("numeric concept %d: %w", conceptID, ErrNotFound)
	}
	return r, nil
}

// RegisterHandler registers a complex value handler under the given name.
// Registering a name twice replaces the previous handler.
func (s *InMemoryConceptService) RegisterHandler(name string, h ComplexHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[name] = h
}

// Handlers returns the names of all registered complex handlers.
func (s *InMemoryConceptService) Handlers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Keys(s.handlers)
}

// ResolveComplexValue dispatches to the named handler. An unknown handler
// name is a dictionary contract violation, not an absence signal.
func (s *InMemoryConceptService) ResolveComplexValue(ctx context.Context, handler string, obs *model.Observation) (any, error) {
	s.mu.RLock()
	h, ok := s.handlers[handler]
	s.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("complex handler %q: %w", handler, ErrNotFound)
	}
	return h.GetValue(ctx, obs)
}
