package engine

import (
	"fmt"
	"slices"
	"strings"
)

// MapPool keeps every map in exactly one of available, banned or picked.
// Listing order follows the template.
type MapPool struct {
	all       []string
	available []string
	banned    []string
	picked    []string
}

func NewMapPool(maps []string) (MapPool, error) {
	seen := make(map[string]bool, len(maps))
	all := make([]string, 0, len(maps))
	for _, m := range maps {
		m = strings.TrimSpace(m)
		if m == "" {
			return MapPool{}, fmt.Errorf("%w: empty map name", ErrInvalidPool)
		}
		if seen[m] {
			return MapPool{}, fmt.Errorf("%w: duplicate map %q", ErrInvalidPool, m)
		}
		seen[m] = true
		all = append(all, m)
	}
	return MapPool{
		all:       all,
		available: slices.Clone(all),
		banned:    []string{},
		picked:    []string{},
	}, nil
}

func (p *MapPool) IsAvailable(name string) bool {
	return slices.Contains(p.available, name)
}

func (p *MapPool) Ban(name string) bool {
	if !p.take(name) {
		return false
	}
	p.banned = append(p.banned, name)
	return true
}

func (p *MapPool) Pick(name string) bool {
	if !p.take(name) {
		return false
	}
	p.picked = append(p.picked, name)
	return true
}

func (p *MapPool) take(name string) bool {
	idx := slices.Index(p.available, name)
	if idx < 0 {
		return false
	}
	p.available = slices.Delete(p.available, idx, idx+1)
	return true
}

func (p *MapPool) Size() int           { return len(p.all) }
func (p *MapPool) All() []string       { return slices.Clone(p.all) }
func (p *MapPool) Available() []string { return slices.Clone(p.available) }
func (p *MapPool) Banned() []string    { return slices.Clone(p.banned) }
func (p *MapPool) Picked() []string    { return slices.Clone(p.picked) }
