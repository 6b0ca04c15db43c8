package template

import (
	"context"
	"slices"
	"strings"
	"sync"
)

// MemoryStore keeps templates in process. Used when no database is
// configured.
type MemoryStore struct {
	templates map[string]Template
	mu        sync.RWMutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		templates: make(map[string]Template),
	}
}

func (s *MemoryStore) Create(_ context.Context, t Template) error {
	if err := t.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.templates[t.Name]; exists {
		return ErrTemplateExists
	}
	s.templates[t.Name] = t.clone()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, name string) (Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, exists := s.templates[name]
	if !exists {
		return Template{}, ErrTemplateNotFound
	}
	return t.clone(), nil
}

// List returns templates ordered by name.
func (s *MemoryStore) List(_ context.Context) ([]Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Template, 0, len(s.templates))
	for _, t := range s.templates {
		out = append(out, t.clone())
	}
	slices.SortFunc(out, func(a, b Template) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func (s *MemoryStore) Update(_ context.Context, t Template) error {
	if err := t.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.templates[t.Name]; !exists {
		return ErrTemplateNotFound
	}
	s.templates[t.Name] = t.clone()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.templates[name]; !exists {
		return ErrTemplateNotFound
	}
	delete(s.templates, name)
	return nil
}
