package discovery

import (
	"testing"
	"time"

	"github.com/naskel/hdds/internal/rtps/guid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParticipantDBUpsertReportsNewOnFirstSeen(t *testing.T) {
	db := NewParticipantDB(nil)
	p := ParticipantProxy{GUID: guid.New(testPrefix(0x30), guid.EntityIDParticipant), LeaseDuration: time.Minute}

	assert.True(t, db.Upsert(p))
	assert.False(t, db.Upsert(p))
	assert.Equal(t, 1, db.Count())
}

func TestParticipantDBGetReturnsStoredProxy(t *testing.T) {
	db := NewParticipantDB(nil)
	id := guid.New(testPrefix(0x31), guid.EntityIDParticipant)
	db.Upsert(ParticipantProxy{GUID: id, ParticipantName: "alpha"})

	got, ok := db.Get(id)
	require.True(t, ok)
	assert.Equal(t, "alpha", got.ParticipantName)
}

func TestParticipantDBRemove(t *testing.T) {
	db := NewParticipantDB(nil)
	id := guid.New(testPrefix(0x32), guid.EntityIDParticipant)
	db.Upsert(ParticipantProxy{GUID: id})

	assert.True(t, db.Remove(id))
	assert.False(t, db.Remove(id))
	_, ok := db.Get(id)
	assert.False(t, ok)
}

func TestParticipantDBSetAndGetDialect(t *testing.T) {
	db := NewParticipantDB(nil)
	id := guid.New(testPrefix(0x33), guid.EntityIDParticipant)
	db.Upsert(ParticipantProxy{GUID: id})

	assert.Equal(t, "", db.Dialect(id))
	db.SetDialect(id, "RTI")
	assert.Equal(t, "RTI", db.Dialect(id))
}

func TestParticipantDBSweepEvictsExpiredLease(t *testing.T) {
	db := NewParticipantDB(nil)
	id := guid.New(testPrefix(0x34), guid.EntityIDParticipant)
	db.Upsert(ParticipantProxy{GUID: id, LeaseDuration: time.Second})

	db.sweepOnce(time.Now().Add(10 * time.Second))

	_, ok := db.Get(id)
	assert.False(t, ok)
}

func TestParticipantDBSweepKeepsFreshLease(t *testing.T) {
	db := NewParticipantDB(nil)
	id := guid.New(testPrefix(0x35), guid.EntityIDParticipant)
	db.Upsert(ParticipantProxy{GUID: id, LeaseDuration: time.Minute})

	db.sweepOnce(time.Now())

	_, ok := db.Get(id)
	assert.True(t, ok)
}

func TestParticipantDBAllReturnsEveryEntry(t *testing.T) {
	db := NewParticipantDB(nil)
	db.Upsert(ParticipantProxy{GUID: guid.New(testPrefix(0x36), guid.EntityIDParticipant)})
	db.Upsert(ParticipantProxy{GUID: guid.New(testPrefix(0x37), guid.EntityIDParticipant)})

	assert.Len(t, db.All(), 2)
}
