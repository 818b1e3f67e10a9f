package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableData(t *testing.T) {
	table := NewTableData("GUID", "Topic", "Kind")

	assert.Equal(t, []string{"GUID", "Topic", "Kind"}, table.Headers())
	assert.Empty(t, table.Rows())

	table.AddRow("01.02.03.04:00.00.01.c1", "sensors", "writer")
	table.AddRow("01.02.03.04:00.00.01.c7", "sensors", "reader")

	rows := table.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"01.02.03.04:00.00.01.c1", "sensors", "writer"}, rows[0])
	assert.Equal(t, []string{"01.02.03.04:00.00.01.c7", "sensors", "reader"}, rows[1])
}

func TestPrintTable(t *testing.T) {
	table := NewTableData("Topic", "Type")
	table.AddRow("sensors", "Sample")
	table.AddRow("alerts", "Alert")

	var buf bytes.Buffer
	err := PrintTable(&buf, table)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "TOPIC")
	assert.Contains(t, out, "TYPE")
	assert.Contains(t, out, "sensors")
	assert.Contains(t, out, "Sample")
	assert.Contains(t, out, "alerts")
	assert.Contains(t, out, "Alert")
}

func TestSimpleTable(t *testing.T) {
	pairs := [][2]string{
		{"domain", "0"},
		{"dialect", "cyclonedds"},
	}

	var buf bytes.Buffer
	err := SimpleTable(&buf, pairs)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "domain")
	assert.Contains(t, out, "0")
	assert.Contains(t, out, "dialect")
	assert.Contains(t, out, "cyclonedds")
}
