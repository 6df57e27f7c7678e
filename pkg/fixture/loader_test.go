package fixture_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evalcheck/evalcheck/pkg/fixture"
	"github.com/evalcheck/evalcheck/pkg/types"
)

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadBasicFixture(t *testing.T) {
	path := writeFixture(t, "basic.json", `[
		{"given": {"a": 1}, "cases": [
			{"expression": "a", "result": 1},
			{"expression": "a.b", "error": "invalid-type"}
		]},
		{"given": [1, 2], "cases": [
			{"expression": "x", "result": null}
		]}
	]`)

	f, err := fixture.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "basic", f.Category)
	require.Len(t, f.Groups, 2)
	require.Len(t, f.Groups[0].Cases, 2)
	assert.Equal(t, 3, f.Len())

	success := f.Groups[0].Cases[0]
	assert.Equal(t, "a", success.Expression)
	ve, ok := success.Expect.(fixture.ValueExpectation)
	require.True(t, ok)
	assert.JSONEq(t, "1", string(ve.Result))

	failure := f.Groups[0].Cases[1]
	ee, ok := failure.Expect.(fixture.ErrorExpectation)
	require.True(t, ok)
	assert.Equal(t, "invalid-type", ee.Token)

	// `"result": null` is a success expectation, not an absent field.
	nullCase := f.Groups[1].Cases[0]
	ve, ok = nullCase.Expect.(fixture.ValueExpectation)
	require.True(t, ok)
	assert.Equal(t, "null", string(ve.Result))
}

func TestLoadPreservesGivenKeyOrder(t *testing.T) {
	path := writeFixture(t, "order.json", `[
		{"given": {"z": 1, "a": 2, "m": 3}, "cases": [{"expression": "z", "result": 1}]}
	]`)

	f, err := fixture.Load(path)
	require.NoError(t, err)
	// The raw bytes keep the source key order for deterministic stdin
	// rendering.
	assert.Equal(t, `{"z": 1, "a": 2, "m": 3}`, string(f.Groups[0].Given))
}

func TestLoadRejectsMalformedCases(t *testing.T) {
	tests := []struct {
		name    string
		content string
		code    types.ErrorCode
	}{
		{
			name:    "invalid JSON",
			content: `[{"given": {}`,
			code:    types.ErrFixtureLoad,
		},
		{
			name:    "case with both result and error",
			content: `[{"given": {}, "cases": [{"expression": "a", "result": 1, "error": "boom"}]}]`,
			code:    types.ErrCaseShape,
		},
		{
			name:    "case with neither result nor error",
			content: `[{"given": {}, "cases": [{"expression": "a"}]}]`,
			code:    types.ErrCaseShape,
		},
		{
			name:    "case without expression",
			content: `[{"given": {}, "cases": [{"result": 1}]}]`,
			code:    types.ErrCaseShape,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFixture(t, "bad.json", tt.content)
			_, err := fixture.Load(path)
			require.Error(t, err)

			var terr *types.Error
			require.True(t, errors.As(err, &terr))
			assert.Equal(t, tt.code, terr.Code)
			assert.True(t, terr.IsFatal())
			assert.Equal(t, path, terr.Path)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := fixture.Load(filepath.Join(t.TempDir(), "nope.json"))
	var terr *types.Error
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, types.ErrFixtureLoad, terr.Code)
}

func TestFlatteningIsOrderPreservingAndTotal(t *testing.T) {
	path := writeFixture(t, "filters.json", `[
		{"given": 1, "cases": [
			{"expression": "a", "result": 1},
			{"expression": "b", "result": 2}
		]},
		{"given": 2, "cases": [
			{"expression": "c", "result": 3}
		]},
		{"given": 3, "cases": []}
	]`)

	f, err := fixture.Load(path)
	require.NoError(t, err)

	var got []fixture.FlatCase
	for c := range f.Cases() {
		got = append(got, c)
	}
	require.Len(t, got, 3)

	wantPositions := [][2]int{{0, 0}, {0, 1}, {1, 0}}
	seen := make(map[string]bool)
	for i, c := range got {
		assert.Equal(t, "filters", c.Category)
		assert.Equal(t, wantPositions[i][0], c.Group)
		assert.Equal(t, wantPositions[i][1], c.Test)
		assert.False(t, seen[c.ID()], "duplicate case id %s", c.ID())
		seen[c.ID()] = true
	}

	// Re-iteration reproduces the same sequence.
	var again []string
	for c := range f.Cases() {
		again = append(again, c.ID())
	}
	assert.Equal(t, []string{"filters,0,0", "filters,0,1", "filters,1,0"}, again)
}

func TestFlatteningStopsEarly(t *testing.T) {
	path := writeFixture(t, "stop.json", `[
		{"given": 1, "cases": [
			{"expression": "a", "result": 1},
			{"expression": "b", "result": 2}
		]}
	]`)

	f, err := fixture.Load(path)
	require.NoError(t, err)

	n := 0
	for range f.Cases() {
		n++
		break
	}
	assert.Equal(t, 1, n)
}

func TestFlatCaseID(t *testing.T) {
	c := fixture.FlatCase{Category: "basic", Group: 4, Test: 7}
	assert.Equal(t, "basic,4,7", c.ID())
}
