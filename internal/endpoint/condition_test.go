package endpoint

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGuardConditionSetAndTrigger(t *testing.T) {
	g := NewGuardCondition()
	assert.False(t, g.Triggered())
	g.Set(true)
	assert.True(t, g.Triggered())
}

func TestConditionIDsAreStableAndUnique(t *testing.T) {
	a := NewGuardCondition()
	b := NewStatusCondition()
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, a.ID(), a.ID())
}

func TestWaitSetWaitReturnsImmediatelyWhenAlreadyTriggered(t *testing.T) {
	ws := NewWaitSet()
	g := NewGuardCondition()
	ws.Attach(g)
	g.Set(true)

	triggered := ws.Wait(time.Second)
	assert.Len(t, triggered, 1)
	assert.Equal(t, g.ID(), triggered[0].ID())
}

func TestWaitSetWaitTimesOutEmpty(t *testing.T) {
	ws := NewWaitSet()
	ws.Attach(NewGuardCondition())

	start := time.Now()
	triggered := ws.Wait(30 * time.Millisecond)
	assert.Empty(t, triggered)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestWaitSetWaitWakesWhenConditionTriggersMidWait(t *testing.T) {
	ws := NewWaitSet()
	g := NewGuardCondition()
	ws.Attach(g)

	go func() {
		time.Sleep(15 * time.Millisecond)
		g.Set(true)
	}()

	triggered := ws.Wait(2 * time.Second)
	assert.Len(t, triggered, 1)
}

func TestWaitSetDetach(t *testing.T) {
	ws := NewWaitSet()
	g := NewGuardCondition()
	ws.Attach(g)
	ws.Detach(g)
	g.Set(true)

	triggered := ws.Wait(20 * time.Millisecond)
	assert.Empty(t, triggered)
}
