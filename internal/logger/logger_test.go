package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureOutput redirects logger output to a buffer for testing.
func captureOutput() (*bytes.Buffer, func()) {
	buf := new(bytes.Buffer)

	mu.Lock()
	originalOutput := output
	originalColor := useColor
	output = buf
	useColor = false
	mu.Unlock()

	reconfigure()

	cleanup := func() {
		mu.Lock()
		output = originalOutput
		useColor = originalColor
		mu.Unlock()
		reconfigure()
	}

	return buf, cleanup
}

func TestLevelFiltering(t *testing.T) {
	t.Run("DebugLevelShowsAllMessages", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("DEBUG")
		Debug("debug message")
		Info("info message")
		Warn("warn message")
		Error("error message")

		out := buf.String()
		assert.Contains(t, out, "debug message")
		assert.Contains(t, out, "info message")
		assert.Contains(t, out, "warn message")
		assert.Contains(t, out, "error message")
	})

	t.Run("WarnLevelHidesDebugAndInfo", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("WARN")
		Debug("debug message")
		Info("info message")
		Warn("warn message")

		out := buf.String()
		assert.NotContains(t, out, "debug message")
		assert.NotContains(t, out, "info message")
		assert.Contains(t, out, "warn message")
	})

	t.Run("InvalidLevelIsIgnored", func(t *testing.T) {
		SetLevel("INFO")
		SetLevel("NONSENSE")
		assert.Equal(t, LevelInfo, Level(currentLevel.Load()))
	})
}

func TestFormatJSON(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	SetLevel("INFO")
	SetFormat("json")
	Info("participant discovered", KeyGUID, "0102030405060708090a0b0c")

	var decoded map[string]any
	line := strings.TrimSpace(buf.String())
	require.NoError(t, json.Unmarshal([]byte(line), &decoded))
	assert.Equal(t, "participant discovered", decoded["msg"])
	assert.Equal(t, "0102030405060708090a0b0c", decoded[KeyGUID])

	SetFormat("text")
}

func TestContextFields(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	SetLevel("DEBUG")
	SetFormat("json")
	defer SetFormat("text")

	lc := NewLogContext(42).WithOperation("spdp_receive").WithTopic("HelloWorldTopic")
	ctx := WithContext(context.Background(), lc)

	InfoCtx(ctx, "handled discovery packet")

	var decoded map[string]any
	line := strings.TrimSpace(buf.String())
	require.NoError(t, json.Unmarshal([]byte(line), &decoded))
	assert.Equal(t, "spdp_receive", decoded[KeyOperation])
	assert.Equal(t, "HelloWorldTopic", decoded[KeyTopic])
	assert.Equal(t, float64(42), decoded[KeyDomainID])
}

func TestFieldConstructors(t *testing.T) {
	assert.Equal(t, KeyGUID, GUID([]byte{1, 2}).Key)
	assert.Equal(t, KeyTopic, Topic("t").Key)
	assert.Equal(t, KeySeq, Seq(7).Key)
	assert.Equal(t, KeyDialect, Dialect("fastdds").Key)
	assert.Equal(t, KeyLocator, Locator("udpv4:1.2.3.4:7410").Key)

	rng := SeqRange(1, 10)
	require.Len(t, rng, 2)
	assert.Equal(t, KeySeqFirst, rng[0].Key)
	assert.Equal(t, KeySeqLast, rng[1].Key)
}

func TestErrAttrNilSafe(t *testing.T) {
	attr := Err(nil)
	assert.True(t, attr.Equal(attr)) // zero Attr is comparable; just ensure no panic
}

func TestLogContextClone(t *testing.T) {
	lc := NewLogContext(1).WithOperation("write").WithParticipant("aabbcc")
	clone := lc.Clone()
	clone.Operation = "read"

	assert.Equal(t, "write", lc.Operation)
	assert.Equal(t, "read", clone.Operation)
	assert.Equal(t, "aabbcc", clone.Participant)
}

func TestDebugfBackwardCompat(t *testing.T) {
	buf, cleanup := captureOutput()
	defer cleanup()

	SetLevel("DEBUG")
	Debugf("seq=%d", 5)
	assert.Contains(t, buf.String(), "seq=5")
}
