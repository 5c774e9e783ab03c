// Package policy is the single source of truth for which capabilities a user
// class may use. Every feature gate in the service goes through Table.
package policy

import (
	"sort"
	"sync/atomic"

	"engine/internal/domain"
)

// Capability is an opaque feature-gate token.
type Capability string

// Snapshot is an immutable class -> capability set mapping.
type Snapshot struct {
	classes map[domain.UserClass]map[Capability]struct{}
}

// NewSnapshot copies grants into a fresh immutable snapshot.
func NewSnapshot(grants map[domain.UserClass][]Capability) *Snapshot {
	s := &Snapshot{classes: make(map[domain.UserClass]map[Capability]struct{}, len(grants))}
	for class, caps := range grants {
		set := make(map[Capability]struct{}, len(caps))
		for _, c := range caps {
			set[c] = struct{}{}
		}
		s.classes[class] = set
	}
	return s
}

func (s *Snapshot) has(class domain.UserClass, capability Capability) bool {
	if s == nil {
		return false
	}
	set, ok := s.classes[class]
	if !ok {
		return false
	}
	_, ok = set[capability]
	return ok
}

func (s *Snapshot) allowed(class domain.UserClass) []Capability {
	if s == nil {
		return nil
	}
	set := s.classes[class]
	out := make([]Capability, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Table evaluates capabilities against the current snapshot. Reads never lock;
// Replace swaps the whole snapshot so in-flight readers keep a consistent view.
type Table struct {
	current atomic.Pointer[Snapshot]
}

// NewTable returns a table serving snap.
func NewTable(snap *Snapshot) *Table {
	t := &Table{}
	t.current.Store(snap)
	return t
}

// HasCapability reports whether class may use capability. Unknown classes and
// unknown capabilities are denied.
func (t *Table) HasCapability(class domain.UserClass, capability Capability) bool {
	if t == nil {
		return false
	}
	return t.current.Load().has(class, capability)
}

// Allowed lists the capabilities granted to class in ascending order.
func (t *Table) Allowed(class domain.UserClass) []Capability {
	if t == nil {
		return nil
	}
	return t.current.Load().allowed(class)
}

// Knows reports whether class has an entry in the table, even an empty one.
func (t *Table) Knows(class domain.UserClass) bool {
	if t == nil {
		return false
	}
	snap := t.current.Load()
	if snap == nil {
		return false
	}
	_, ok := snap.classes[class]
	return ok
}

// Replace installs a new snapshot.
func (t *Table) Replace(snap *Snapshot) {
	t.current.Store(snap)
}
