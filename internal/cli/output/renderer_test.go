package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffectiveMode(t *testing.T) {
	tests := []struct {
		name string
		mode Mode
		want Mode
	}{
		{"explicit text", ModeText, ModeText},
		{"explicit markdown", ModeMarkdown, ModeMarkdown},
		{"explicit json", ModeJSON, ModeJSON},
		{"auto on a pipe falls back to markdown", ModeAuto, ModeMarkdown},
		{"empty mode behaves like auto", Mode(""), ModeMarkdown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRenderer(&bytes.Buffer{}, &bytes.Buffer{}, tt.mode)
			assert.Equal(t, tt.want, r.EffectiveMode())
		})
	}
}

func TestRenderer_PlainStylesOffTerminal(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewRenderer(&out, &errOut, ModeText)

	r.Success("all components verified")
	r.Error("tests failed")
	r.Warning("run history disabled")

	// No ANSI escapes when the writer is not a terminal.
	assert.Equal(t, "all components verified\n", out.String())
	assert.Contains(t, errOut.String(), "tests failed\n")
	assert.Contains(t, errOut.String(), "run history disabled\n")
	assert.NotContains(t, out.String(), "\x1b[")
	assert.NotContains(t, errOut.String(), "\x1b[")
}

func TestRenderer_JSON(t *testing.T) {
	var out bytes.Buffer
	r := NewRenderer(&out, &bytes.Buffer{}, ModeJSON)

	require.NoError(t, r.JSON(map[string]any{"component": "core", "memcheck": true}))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, "core", decoded["component"])
	assert.Equal(t, true, decoded["memcheck"])
}

func TestRenderer_PrintfPrintln(t *testing.T) {
	var out bytes.Buffer
	r := NewRenderer(&out, &bytes.Buffer{}, ModeText)

	r.Printf("%d components\n", 4)
	r.Println("done")
	assert.Equal(t, "4 components\ndone\n", out.String())
}
