// Package template stores the named rule templates vetoes are started from.
package template

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/DoyleJ11/map-veto-backend/internal/engine"
)

var ErrTemplateExists = errors.New("template already exists")
var ErrTemplateNotFound = errors.New("template not found")
var ErrInvalidTemplate = errors.New("invalid template")

type Template struct {
	Name  string   `json:"name"`
	Maps  []string `json:"maps"`
	Rules []string `json:"rules"`
}

// Program parses Rules. It does not check the rules against Maps; use
// Validate for that.
func (t Template) Program() (engine.RuleProgram, error) {
	return engine.ParseRules(t.Rules)
}

func (t Template) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: name required", ErrInvalidTemplate)
	}
	program, err := t.Program()
	if err != nil {
		return err
	}
	return engine.CheckSetup(t.Maps, program)
}

func (t Template) clone() Template {
	return Template{Name: t.Name, Maps: slices.Clone(t.Maps), Rules: slices.Clone(t.Rules)}
}

type Store interface {
	Create(ctx context.Context, t Template) error
	Get(ctx context.Context, name string) (Template, error)
	List(ctx context.Context) ([]Template, error)
	Update(ctx context.Context, t Template) error
	Delete(ctx context.Context, name string) error
}

func FromPreset(p engine.Preset) Template {
	return Template{Name: p.Name, Maps: slices.Clone(p.Maps), Rules: p.Program.Tokens()}
}

// Seed adds the built-in presets that are not in s yet. Existing templates
// with the same name are left alone.
func Seed(ctx context.Context, s Store) error {
	for _, p := range engine.Presets {
		err := s.Create(ctx, FromPreset(p))
		if err != nil && !errors.Is(err, ErrTemplateExists) {
			return fmt.Errorf("seed %s: %w", p.Name, err)
		}
	}
	return nil
}
