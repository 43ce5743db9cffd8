package api

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixturePath returns a file under the module's testdata/envelope directory.
// Client libraries parse the same fixtures.
func fixturePath(t *testing.T, name string) string {
	t.Helper()
	_, filename, _, ok := runtime.Caller(0)
	require.True(t, ok, "Failed to get caller info")

	moduleDir := filepath.Dir(filepath.Dir(filepath.Dir(filename)))
	return filepath.Join(moduleDir, "testdata", "envelope", name)
}

func loadFixture(t *testing.T, name string) map[string]any {
	t.Helper()
	raw, err := os.ReadFile(fixturePath(t, name))
	require.NoError(t, err, "contract tests require shared fixtures")

	var fixture map[string]any
	require.NoError(t, json.Unmarshal(raw, &fixture))
	return fixture
}

func transformToMap(t *testing.T, status string, v any) map[string]any {
	t.Helper()
	result, err := EnvelopeTransformer(nil, status, v)
	require.NoError(t, err)

	raw, err := json.Marshal(result)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

func TestEnvelopeContract_SuccessMatchesFixture(t *testing.T) {
	expected := loadFixture(t, "success.json")

	out := transformToMap(t, "200", map[string]string{"id": "test-123", "name": "Test Item"})

	assert.Equal(t, expected, out)
}

func TestEnvelopeContract_SuccessNullDataMatchesFixture(t *testing.T) {
	expected := loadFixture(t, "success_null_data.json")

	out := transformToMap(t, "204", nil)

	assert.Equal(t, expected, out)
}

func TestEnvelopeContract_SimpleErrorMatchesFixture(t *testing.T) {
	expected := loadFixture(t, "error_simple.json")

	out := transformToMap(t, "404", &APIError{Message: "resource not found"})

	assert.Equal(t, expected, out)
}

func TestEnvelopeContract_DetailedErrorMatchesFixture(t *testing.T) {
	expected := loadFixture(t, "error_detailed.json")

	out := transformToMap(t, "400", &APIError{
		Code:    "INVALID_ARGUMENT",
		Message: "validation failed",
		Details: map[string]string{"title": "is required"},
	})

	assert.Equal(t, expected, out)
}

// A renamed version field breaks clients silently.
func TestEnvelopeContract_VersionFieldName(t *testing.T) {
	out := transformToMap(t, "200", nil)

	assert.Contains(t, out, "v")
	assert.NotContains(t, out, "version")
	assert.NotContains(t, out, "Version")
}
