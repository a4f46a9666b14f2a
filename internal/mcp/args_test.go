package mcp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStringArg(t *testing.T) {
	t.Parallel()

	argsMap := map[string]interface{}{
		"query": "Greeter",
		"count": float64(3),
		"empty": "",
	}

	val, err := parseStringArg(argsMap, "query", true)
	require.NoError(t, err)
	assert.Equal(t, "Greeter", val)

	// Test: missing optional argument is the zero value, not an error.
	val, err = parseStringArg(argsMap, "absent", false)
	require.NoError(t, err)
	assert.Empty(t, val)

	_, err = parseStringArg(argsMap, "absent", true)
	assert.ErrorContains(t, err, "absent parameter is required")

	_, err = parseStringArg(argsMap, "empty", true)
	assert.ErrorContains(t, err, "empty cannot be empty")

	_, err = parseStringArg(argsMap, "count", false)
	assert.ErrorContains(t, err, "count must be a string")
}

func TestParseClampedInt(t *testing.T) {
	t.Parallel()

	argsMap := map[string]interface{}{
		"small": float64(-5),
		"big":   float64(9000),
		"fine":  float64(42),
		"text":  "42",
	}

	assert.Equal(t, 1, parseClampedInt(argsMap, "small", 15, 1, 100))
	assert.Equal(t, 100, parseClampedInt(argsMap, "big", 15, 1, 100))
	assert.Equal(t, 42, parseClampedInt(argsMap, "fine", 15, 1, 100))

	// Test: non-numeric and missing values fall back to the default.
	assert.Equal(t, 15, parseClampedInt(argsMap, "text", 15, 1, 100))
	assert.Equal(t, 15, parseClampedInt(argsMap, "absent", 15, 1, 100))
}

func TestParseArrayArg(t *testing.T) {
	t.Parallel()

	argsMap := map[string]interface{}{
		"paths": []interface{}{"src/a.php", "src/b.php", 7},
		"text":  "src/a.php",
	}

	// Test: non-string elements are dropped, not errors.
	assert.Equal(t, []string{"src/a.php", "src/b.php"}, parseArrayArg(argsMap, "paths"))
	assert.Nil(t, parseArrayArg(argsMap, "absent"))
	assert.Nil(t, parseArrayArg(argsMap, "text"))
}
