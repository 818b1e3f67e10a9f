// Package qos implements the DDS QoS policy set and the compatibility
// rules the matcher applies between a writer and a reader on the same
// topic (§3).
package qos

import "time"

// ReliabilityKind selects best-effort or reliable delivery.
type ReliabilityKind int

const (
	BestEffort ReliabilityKind = iota
	Reliable
)

// DurabilityKind controls whether late-joining readers receive history.
type DurabilityKind int

const (
	Volatile DurabilityKind = iota
	TransientLocal
	Transient
	Persistent
)

// HistoryKind selects how many samples per instance are retained.
type HistoryKind int

const (
	KeepLast HistoryKind = iota
	KeepAll
)

// LivelinessKind selects how liveliness is asserted.
type LivelinessKind int

const (
	Automatic LivelinessKind = iota
	ManualByParticipant
	ManualByTopic
)

// OwnershipKind selects shared or exclusive instance ownership.
type OwnershipKind int

const (
	Shared OwnershipKind = iota
	Exclusive
)

// DestinationOrderKind selects reception-order or source-timestamp
// ordering for delivery to readers.
type DestinationOrderKind int

const (
	ByReceptionTimestamp DestinationOrderKind = iota
	BySourceTimestamp
)

// DataRepresentation selects the CDR wire encoding generation negotiated
// between writer and reader.
type DataRepresentation int

const (
	XCDR1 DataRepresentation = iota
	XCDR2
)

// Policies is the full QoS policy set attached to a DataWriter or
// DataReader.
type Policies struct {
	Reliability        ReliabilityKind
	Durability         DurabilityKind
	History            HistoryKind
	HistoryDepth       int // meaningful only for KeepLast
	Deadline           time.Duration
	Liveliness         LivelinessKind
	LivelinessLease    time.Duration
	Ownership          OwnershipKind
	OwnershipStrength  int32
	Partitions         []string
	LatencyBudget      time.Duration
	Lifespan           time.Duration
	DestinationOrder   DestinationOrderKind
	DataRepresentation DataRepresentation
	UserData           []byte
	GroupData          []byte
	TopicData          []byte
}

// Default returns the OMG-default policy set: BestEffort, Volatile,
// KeepLast(1), Shared ownership, no deadline/liveliness constraints.
func Default() Policies {
	return Policies{
		Reliability:     BestEffort,
		Durability:      Volatile,
		History:         KeepLast,
		HistoryDepth:    1,
		Liveliness:      Automatic,
		LivelinessLease: 0,
		Ownership:       Shared,
	}
}

// Mismatch names a single incompatible policy, used to populate the
// INCOMPATIBLE_QOS status (§8 scenario S5).
type Mismatch struct {
	Policy string
}

// Compatible reports whether a reader with policies qR may match a writer
// with policies qW, returning every mismatched policy when it cannot
// (§3's compatibility table; an empty slice means compatible).
func Compatible(qW, qR Policies) []Mismatch {
	var mismatches []Mismatch

	if qR.Reliability == Reliable && qW.Reliability != Reliable {
		mismatches = append(mismatches, Mismatch{"RELIABILITY"})
	}
	if durabilityRank(qR.Durability) > durabilityRank(qW.Durability) {
		mismatches = append(mismatches, Mismatch{"DURABILITY"})
	}
	if qR.History == KeepLast && qW.History == KeepLast && qR.HistoryDepth > qW.HistoryDepth {
		mismatches = append(mismatches, Mismatch{"HISTORY"})
	}
	// qW.Deadline == 0 means the writer offers no deadline commitment at
	// all (infinite), which cannot satisfy any finite period a reader
	// requests, not just periods shorter than qW.Deadline.
	if qR.Deadline > 0 && (qW.Deadline == 0 || qR.Deadline < qW.Deadline) {
		mismatches = append(mismatches, Mismatch{"DEADLINE"})
	}
	if qR.Liveliness > qW.Liveliness {
		mismatches = append(mismatches, Mismatch{"LIVELINESS_KIND"})
	}
	if qW.Liveliness == qR.Liveliness && qR.LivelinessLease > 0 && qR.LivelinessLease < qW.LivelinessLease {
		mismatches = append(mismatches, Mismatch{"LIVELINESS_LEASE"})
	}
	if qW.Ownership != qR.Ownership {
		mismatches = append(mismatches, Mismatch{"OWNERSHIP"})
	}
	if !partitionsIntersect(qW.Partitions, qR.Partitions) {
		mismatches = append(mismatches, Mismatch{"PARTITION"})
	}
	return mismatches
}

func durabilityRank(d DurabilityKind) int { return int(d) }

// partitionsIntersect reports a match iff the two sets intersect, or both
// are empty (§3).
func partitionsIntersect(a, b []string) bool {
	if len(a) == 0 && len(b) == 0 {
		return true
	}
	set := make(map[string]struct{}, len(a))
	for _, s := range a {
		set[s] = struct{}{}
	}
	for _, s := range b {
		if _, ok := set[s]; ok {
			return true
		}
	}
	return false
}
