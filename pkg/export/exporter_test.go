package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterRender(t *testing.T) {
	data := Dataset{Headers: []string{"date", "score"}}
	data.Append("2024-01-02 09:00", "4")
	data.Append("2024-01-03 10:00", "2")

	out, err := NewCSVExporter().Render(data)
	require.NoError(t, err)
	assert.Equal(t, "date,score\n2024-01-02 09:00,4\n2024-01-03 10:00,2\n", string(out))
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	require.ErrorIs(t, err, ErrNoHeaders)
}

func TestCSVExporterNeutralisesFormulas(t *testing.T) {
	data := Dataset{Headers: []string{"note", "delta"}}
	data.Append("=HYPERLINK(\"x\")", "-2")
	data.Append("-cmd", "@sum")

	var buf bytes.Buffer
	require.NoError(t, NewCSVExporter().Write(&buf, data))
	assert.Equal(t, "note,delta\n\"'=HYPERLINK(\"\"x\"\")\",-2\n'-cmd,'@sum\n", buf.String())
}

func TestPDFExporterRender(t *testing.T) {
	data := Dataset{Headers: []string{"#", "Service", "Date", "Status"}}
	data.Append("1", "counselling", "2024-01-02 09:00", "scheduled")

	out, err := NewPDFExporter().Render(data, PDFDocument{Title: "Appointments", Subtitle: "Alice Green", Footer: "UniSupport"})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestPDFExporterEmptyDataset(t *testing.T) {
	out, err := NewPDFExporter().Render(Dataset{Headers: []string{"Date"}}, PDFDocument{})
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}
