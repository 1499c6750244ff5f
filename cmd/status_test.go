package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/directory-enrich/internal/model"
)

func sampleStats() *model.Stats {
	return &model.Stats{
		Total:           120,
		Incomplete:      2,
		WithCoordinates: 100,
		IncompleteNames: []string{"Kelcon, LLC", "ICA"},
	}
}

func TestRenderStats_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderStats(&buf, sampleStats(), "text"))

	out := buf.String()
	assert.Contains(t, out, "Total records:        120")
	assert.Contains(t, out, "Incomplete:           2")
	assert.Contains(t, out, "Missing coordinates:  20")
	assert.Contains(t, out, "  1. Kelcon, LLC\n  2. ICA\n")
}

func TestRenderStats_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderStats(&buf, sampleStats(), "json"))

	var got model.Stats
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, *sampleStats(), got)
}

func TestRenderStats_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderStats(&buf, sampleStats(), "yaml"))
	assert.Contains(t, buf.String(), "with_coordinates: 100")

	var got model.Stats
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, 120, got.Total)
}

func TestRenderStats_UnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	err := renderStats(&buf, sampleStats(), "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown format "xml"`)
}
