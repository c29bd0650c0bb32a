// Package stats holds the clamped resource pools (health, faith, wisdom)
// of a character.
package stats

import "math"

// Kind identifies a resource pool.
type Kind string

const (
	Health Kind = "health"
	Faith  Kind = "faith"
	Wisdom Kind = "wisdom"
)

// Kinds lists every resource kind in display order.
var Kinds = []Kind{Health, Faith, Wisdom}

// Valid reports whether k is a known resource kind.
func (k Kind) Valid() bool {
	switch k {
	case Health, Faith, Wisdom:
		return true
	}
	return false
}

// Resource is a current/max pair. Current always lies in [0, Max].
type Resource struct {
	Current float64 `json:"current"`
	Max     float64 `json:"max"`
}

// Ratio returns Current/Max, or 0 when Max is 0.
func (r Resource) Ratio() float64 {
	if r.Max <= 0 {
		return 0
	}
	return r.Current / r.Max
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Pool owns one Resource per Kind.
type Pool struct {
	res map[Kind]*Resource
}

// NewPool creates a pool where every resource starts full at its max.
func NewPool(health, faith, wisdom float64) *Pool {
	p := &Pool{res: make(map[Kind]*Resource, len(Kinds))}
	p.res[Health] = &Resource{Current: health, Max: health}
	p.res[Faith] = &Resource{Current: faith, Max: faith}
	p.res[Wisdom] = &Resource{Current: wisdom, Max: wisdom}
	return p
}

// Get returns a copy of the resource for kind.
func (p *Pool) Get(kind Kind) Resource {
	if r, ok := p.res[kind]; ok {
		return *r
	}
	return Resource{}
}

// Current is shorthand for Get(kind).Current.
func (p *Pool) Current(kind Kind) float64 {
	return p.Get(kind).Current
}

// Modify adds delta (either sign) and clamps into [0, max]. It returns the
// amount actually applied.
func (p *Pool) Modify(kind Kind, delta float64) float64 {
	r, ok := p.res[kind]
	if !ok {
		return 0
	}
	before := r.Current
	r.Current = clamp(r.Current+delta, 0, r.Max)
	return r.Current - before
}

// SetMax changes the max and re-clamps current. Negative values become 0.
func (p *Pool) SetMax(kind Kind, max float64) {
	r, ok := p.res[kind]
	if !ok {
		return
	}
	r.Max = math.Max(0, max)
	r.Current = clamp(r.Current, 0, r.Max)
}

// Set restores a saved current/max pair, clamped.
func (p *Pool) Set(kind Kind, v Resource) {
	r, ok := p.res[kind]
	if !ok {
		return
	}
	r.Max = math.Max(0, v.Max)
	r.Current = clamp(v.Current, 0, r.Max)
}

// Fill restores every resource to its max.
func (p *Pool) Fill() {
	for _, r := range p.res {
		r.Current = r.Max
	}
}

// Damage removes amount of health and reports whether the character is
// incapacitated (health reached 0).
func (p *Pool) Damage(amount float64) bool {
	p.Modify(Health, -math.Abs(amount))
	return p.Current(Health) == 0
}

// Regen applies rate*dt to kind so regeneration is frame-rate independent.
func (p *Pool) Regen(kind Kind, ratePerSecond, dt float64) {
	p.Modify(kind, ratePerSecond*dt)
}

// Snapshot returns a copy of every resource keyed by kind.
func (p *Pool) Snapshot() map[Kind]Resource {
	out := make(map[Kind]Resource, len(p.res))
	for k, r := range p.res {
		out[k] = *r
	}
	return out
}
