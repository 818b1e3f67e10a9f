package endpoint

import "sync/atomic"

var conditionIDCounter uint64

func nextConditionID() uint64 {
	return atomic.AddUint64(&conditionIDCounter, 1)
}

// Condition is attachable to a WaitSet. Every condition carries a stable
// ID for the lifetime of the process so FFI-style layers can map raw
// handles to conditions without holding a Go pointer (§4.6).
type Condition interface {
	ID() uint64
	Triggered() bool
}

// GuardCondition is a user-settable trigger with no other semantics,
// typically used to wake a WaitSet on participant shutdown.
type GuardCondition struct {
	id        uint64
	triggered atomic.Bool
}

// NewGuardCondition creates an initially untriggered guard condition.
func NewGuardCondition() *GuardCondition {
	return &GuardCondition{id: nextConditionID()}
}

func (g *GuardCondition) ID() uint64 { return g.id }

// Triggered reports the condition's current state.
func (g *GuardCondition) Triggered() bool { return g.triggered.Load() }

// Set changes the trigger state.
func (g *GuardCondition) Set(v bool) { g.triggered.Store(v) }

// StatusCondition reports whether any of a set of status changes has
// occurred on an entity (DataWriter/DataReader) since it was last reset.
// The specific statuses it can represent (OFFERED_DEADLINE_MISSED,
// LIVELINESS_LOST, ...) are tracked by the owning endpoint; StatusCondition
// itself is just the WaitSet-visible edge.
type StatusCondition struct {
	id        uint64
	triggered atomic.Bool
}

// NewStatusCondition creates an initially untriggered status condition.
func NewStatusCondition() *StatusCondition {
	return &StatusCondition{id: nextConditionID()}
}

func (s *StatusCondition) ID() uint64 { return s.id }

// Triggered reports the condition's current state.
func (s *StatusCondition) Triggered() bool { return s.triggered.Load() }

// Trigger marks the condition set, waking any WaitSet it is attached to.
func (s *StatusCondition) Trigger() { s.triggered.Store(true) }

// Reset clears the triggered state, typically after the owner has drained
// the status it represents.
func (s *StatusCondition) Reset() { s.triggered.Store(false) }
