package prompt

import (
	"errors"
	"testing"

	"github.com/manifoldco/promptui"
	"github.com/stretchr/testify/assert"
)

func TestIsAborted(t *testing.T) {
	assert.True(t, IsAborted(promptui.ErrInterrupt))
	assert.True(t, IsAborted(promptui.ErrAbort))
	assert.True(t, IsAborted(ErrAborted))
	assert.False(t, IsAborted(errors.New("some other error")))
	assert.False(t, IsAborted(nil))
}

func TestWrapError(t *testing.T) {
	assert.Nil(t, wrapError(nil))
	assert.Equal(t, ErrAborted, wrapError(promptui.ErrInterrupt))
	assert.Equal(t, ErrAborted, wrapError(promptui.ErrAbort))

	other := errors.New("boom")
	assert.Equal(t, other, wrapError(other))
}
