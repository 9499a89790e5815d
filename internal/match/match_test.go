package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExact(t *testing.T) {
	pred := Exact("Handler")
	assert.True(t, pred("Handler"))
	assert.False(t, pred("handler"))
	assert.False(t, pred("HandlerImpl"))
}

func TestInsensitive(t *testing.T) {
	pred := Insensitive("handler")
	assert.True(t, pred("Handler"))
	assert.True(t, pred("HANDLER"))
	assert.False(t, pred("HandlerImpl"))
}

func TestSubstring(t *testing.T) {
	pred := Substring("list")
	assert.True(t, pred("ArrayList"))
	assert.True(t, pred("ListNode"))
	assert.False(t, pred("Map"))
}

func TestFuzzyToleratesTypos(t *testing.T) {
	pred := Fuzzy("AbstractHandler", 0.85)
	assert.True(t, pred("AbstractHandler"))
	assert.True(t, pred("AbstractHandlr"))
	assert.False(t, pred("Iterator"))
}

func TestFuzzyEmptyNamesNeverMatch(t *testing.T) {
	pred := Fuzzy("Handler", 0.5)
	assert.False(t, pred(""))
}

func TestFuzzyBadThresholdFallsBack(t *testing.T) {
	pred := Fuzzy("Handler", 7.0)
	assert.True(t, pred("Handler"))
}

func TestBuildModes(t *testing.T) {
	cases := []struct {
		mode   string
		name   string
		expect bool
	}{
		{"exact", "Widget", true},
		{"exact", "widget", false},
		{"insensitive", "widget", true},
		{"substring", "MyWidgetImpl", true},
		{"fuzzy", "Widgget", true},
	}
	for _, tc := range cases {
		pred, err := Build("Widget", tc.mode, 0.8)
		require.NoError(t, err, tc.mode)
		assert.Equal(t, tc.expect, pred(tc.name), "%s(%s)", tc.mode, tc.name)
	}
}

func TestBuildEmptyTargetMatchesEverything(t *testing.T) {
	pred, err := Build("", "exact", 0)
	require.NoError(t, err)
	assert.True(t, pred("anything"))
	assert.True(t, pred(""))
}

func TestBuildRejectsUnknownMode(t *testing.T) {
	_, err := Build("Widget", "regex", 0)
	require.Error(t, err)
}
