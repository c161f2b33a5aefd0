package seed

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you/busroutes/models"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "routes.yaml", `
routes:
  - number: 500D
    name: Hebbal - Silk Board
    stops: [Hebbal, Marathahalli, Silk Board]
    start_time: "06:00"
    end_time: "22:30"
    frequency: "10"
  - number: 335E
    stops:
      - Majestic
      - KR Puram
`)

	routes, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []models.Route{
		{Number: "500D", Name: "Hebbal - Silk Board", Stops: []string{"Hebbal", "Marathahalli", "Silk Board"},
			StartTime: "06:00", EndTime: "22:30", Frequency: "10"},
		{Number: "335E", Stops: []string{"Majestic", "KR Puram"}},
	}, routes)
}

func TestLoad_JSON(t *testing.T) {
	path := writeFile(t, "routes.json", `{"routes":[{"number":"1","stops":["A","B"]}]}`)

	routes, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []models.Route{{Number: "1", Stops: []string{"A", "B"}}}, routes)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
	}{
		{"missing routes", "a.yaml", "other: 1\n"},
		{"one stop", "a.yaml", "routes:\n  - number: '1'\n    stops: [A]\n"},
		{"blank stop", "a.yaml", "routes:\n  - number: '1'\n    stops: [A, '  ']\n"},
		{"no number", "a.yaml", "routes:\n  - stops: [A, B]\n"},
		{"repeated stop", "a.yaml", "routes:\n  - number: '1'\n    stops: [A, B, a]\n"},
		{"duplicate number", "a.yaml", "routes:\n  - number: 1a\n    stops: [A, B]\n  - number: 1A\n    stops: [C, D]\n"},
		{"bad yaml", "a.yaml", "routes: [\n"},
		{"unknown json field", "a.json", `{"routes":[{"number":"1","stops":["A","B"],"color":"red"}]}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tc.file, tc.body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
