package qos

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultCompatibleWithItself(t *testing.T) {
	p := Default()
	assert.Empty(t, Compatible(p, p))
}

func TestReliabilityMismatch(t *testing.T) {
	w := Default()
	r := Default()
	r.Reliability = Reliable
	mismatches := Compatible(w, r)
	assert.Contains(t, mismatches, Mismatch{"RELIABILITY"})
}

func TestDurabilityMismatch(t *testing.T) {
	w := Default() // Volatile
	r := Default()
	r.Durability = TransientLocal
	assert.Contains(t, Compatible(w, r), Mismatch{"DURABILITY"})
}

func TestHistoryDepthMismatch(t *testing.T) {
	w := Default()
	w.HistoryDepth = 5
	r := Default()
	r.HistoryDepth = 10
	assert.Contains(t, Compatible(w, r), Mismatch{"HISTORY"})
}

func TestDeadlineMismatch(t *testing.T) {
	w := Default()
	w.Deadline = 2 * time.Second
	r := Default()
	r.Deadline = 1 * time.Second // reader period must be >= writer period
	assert.Contains(t, Compatible(w, r), Mismatch{"DEADLINE"})
}

func TestDeadlineMismatchAgainstInfiniteWriter(t *testing.T) {
	w := Default() // Deadline zero-value means no commitment (infinite)
	r := Default()
	r.Deadline = 1 * time.Second
	assert.Contains(t, Compatible(w, r), Mismatch{"DEADLINE"})
}

func TestDeadlineCompatibleWhenReaderHasNoDeadline(t *testing.T) {
	w := Default()
	w.Deadline = 2 * time.Second
	r := Default() // Deadline zero-value means no request
	assert.Empty(t, Compatible(w, r))
}

func TestOwnershipMustMatch(t *testing.T) {
	w := Default()
	w.Ownership = Exclusive
	r := Default()
	assert.Contains(t, Compatible(w, r), Mismatch{"OWNERSHIP"})
}

func TestPartitionIntersection(t *testing.T) {
	w := Default()
	w.Partitions = []string{"east"}
	r := Default()
	r.Partitions = []string{"west"}
	assert.Contains(t, Compatible(w, r), Mismatch{"PARTITION"})

	r.Partitions = []string{"east", "west"}
	assert.Empty(t, Compatible(w, r))
}

func TestPartitionBothEmptyMatches(t *testing.T) {
	assert.True(t, partitionsIntersect(nil, nil))
}

// S5 scenario: BestEffort/KeepLast(1) writer vs Reliable/KeepAll reader
// must never match.
func TestScenarioS5Incompatible(t *testing.T) {
	w := Default()
	r := Default()
	r.Reliability = Reliable
	r.History = KeepAll
	assert.NotEmpty(t, Compatible(w, r))
}
