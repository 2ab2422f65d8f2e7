package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	v := &VisualConfig{
		Name:    "v1",
		Layouts: []Layout{{Position: VisualPosition{X: 10, Y: 20, Z: 2, Width: 300, Height: 200}}},
		SingleVisual: SingleVisual{
			VisualType: "barChart",
			VCObjects: StyleTree{"title": {{Properties: map[string]json.RawMessage{
				"text": json.RawMessage(`{"expr":{"Literal":{"Value":"'Profit & Sales <2024>'"}}}`),
			}}}},
		},
	}

	w, err := Wrap(v)
	require.NoError(t, err)
	assert.Contains(t, w.Config, "'Profit & Sales <2024>'")
	assert.NotContains(t, w.Config, `\u0026`)
	assert.NotContains(t, w.Config, "\n")
	assert.Equal(t, "[]", w.Filters)
	assert.Equal(t, VisualWrapper{Config: w.Config, Filters: "[]", Height: 200, Width: 300, X: 10, Y: 20, Z: 2}, w)

	back, err := w.Unwrap()
	require.NoError(t, err)
	assert.Equal(t, "v1", back.Name)
	assert.Equal(t, v.Layouts, back.Layouts)
}

func TestWrapNoLayout(t *testing.T) {
	w, err := Wrap(&VisualConfig{Name: "bare"})
	require.NoError(t, err)
	assert.Zero(t, w.X)
	assert.Zero(t, w.Z)
}
