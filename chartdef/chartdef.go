// Package chartdef loads a machine's state tree from a declarative YAML
// document and builds a registry from it.
//
// The document carries topology only: ids, names and parent links. Behavior
// stays in code, as a table of prototypes keyed by state name, handed to
// Build. Because the loader sees the whole tree before registering anything,
// it performs a two-pass build and lifts the parent-before-child ordering
// that the direct registration API requires.
package chartdef

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/tinyhsm/tinyhsm"
)

var (
	ErrDuplicateID    = errors.New("duplicate state id in chart")
	ErrDanglingParent = errors.New("parent refers to no state in chart")
	ErrParentCycle    = errors.New("parent links form a cycle")
	ErrUnboundState   = errors.New("no prototype bound for state")
)

// StateDef describes one state in the chart. A nil Parent marks a root.
type StateDef struct {
	ID     int    `yaml:"id"`
	Name   string `yaml:"name"`
	Parent *int   `yaml:"parent,omitempty"`
}

// Chart is the parsed document.
type Chart struct {
	Machine string     `yaml:"machine"`
	States  []StateDef `yaml:"states"`
}

// Parse decodes and validates a chart document.
func Parse(data []byte) (*Chart, error) {
	var c Chart
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("chartdef: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Load reads a chart document from r.
func Load(r io.Reader) (*Chart, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("chartdef: %w", err)
	}
	return Parse(data)
}

// Validate checks the topology: unique non-negative ids, every parent link
// resolving inside the chart, and no cycles.
func (c *Chart) Validate() error {
	byID := make(map[int]StateDef, len(c.States))
	for _, s := range c.States {
		if s.ID < 0 {
			return fmt.Errorf("chartdef: state %q id %d: %w", s.Name, s.ID, tinyhsm.ErrNegativeID)
		}
		if _, ok := byID[s.ID]; ok {
			return fmt.Errorf("chartdef: state %q id %d: %w", s.Name, s.ID, ErrDuplicateID)
		}
		byID[s.ID] = s
	}
	for _, s := range c.States {
		if s.Parent == nil {
			continue
		}
		if _, ok := byID[*s.Parent]; !ok {
			return fmt.Errorf("chartdef: state %q parent %d: %w", s.Name, *s.Parent, ErrDanglingParent)
		}
	}
	for _, s := range c.States {
		if _, err := c.level(byID, s); err != nil {
			return err
		}
	}
	return nil
}

// level computes a state's nesting depth, detecting cycles by bounding the
// walk at the number of states.
func (c *Chart) level(byID map[int]StateDef, s StateDef) (int, error) {
	level := 0
	for s.Parent != nil && *s.Parent != s.ID {
		if level >= len(c.States) {
			return 0, fmt.Errorf("chartdef: state %q: %w", s.Name, ErrParentCycle)
		}
		s = byID[*s.Parent]
		level++
	}
	return level, nil
}

// Build registers every chart state into a fresh registry, using the
// prototype bound to its name. Registration happens level by level (the
// second pass), so chart document order is free.
func (c *Chart) Build(bindings map[string]tinyhsm.Prototype) (*tinyhsm.Registry, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	byID := make(map[int]StateDef, len(c.States))
	for _, s := range c.States {
		byID[s.ID] = s
	}

	type leveled struct {
		def   StateDef
		level int
	}
	ordered := make([]leveled, 0, len(c.States))
	for _, s := range c.States {
		lv, err := c.level(byID, s)
		if err != nil {
			return nil, err
		}
		ordered = append(ordered, leveled{def: s, level: lv})
	}
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].level < ordered[j].level })

	reg := tinyhsm.NewRegistry()
	for _, s := range ordered {
		proto, ok := bindings[s.def.Name]
		if !ok {
			return nil, fmt.Errorf("chartdef: state %q: %w", s.def.Name, ErrUnboundState)
		}
		parent := s.def.ID
		if s.def.Parent != nil {
			parent = *s.def.Parent
		}
		if err := reg.Add(tinyhsm.StateID(s.def.ID), tinyhsm.StateID(parent), proto); err != nil {
			return nil, fmt.Errorf("chartdef: state %q: %w", s.def.Name, err)
		}
	}
	return reg, nil
}
