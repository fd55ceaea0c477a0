package styles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStyleRegistry(t *testing.T) {
	expectedStyles := []string{
		"Header", "Rule", "Arrow", "Step", "SubStep", "FilePath",
		"Success", "Warning", "Error", "DryRunBanner", "Muted",
	}

	for _, styleName := range expectedStyles {
		t.Run(styleName, func(t *testing.T) {
			_, exists := StyleRegistry[styleName]
			assert.True(t, exists, "Style %s should exist in registry", styleName)
		})
	}
}

func TestGetStyle(t *testing.T) {
	assert.True(t, GetStyle("Header").GetBold())
	assert.False(t, GetStyle("NonExistentStyle").GetBold())
}

func TestLoadStyles(t *testing.T) {
	t.Cleanup(func() { require.NoError(t, LoadStyles(defaultStyles)) })

	err := LoadStyles([]byte(`
colors:
  red:
    light: "#ff0000"
    dark: "#aa0000"
styles:
  Alert:
    bold: true
    underline: true
    foreground: red
  Plain:
    foreground: undefined
`))
	require.NoError(t, err)

	assert.Len(t, StyleRegistry, 2)
	assert.True(t, GetStyle("Alert").GetBold())
	assert.True(t, GetStyle("Alert").GetUnderline())
	assert.False(t, GetStyle("Plain").GetBold())

	assert.Error(t, LoadStyles([]byte("styles: [")))
}
