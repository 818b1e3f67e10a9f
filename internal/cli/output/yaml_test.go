package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintYAML(t *testing.T) {
	var buf bytes.Buffer
	err := PrintYAML(&buf, map[string]string{"topic": "sensors"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "topic: sensors")
}
