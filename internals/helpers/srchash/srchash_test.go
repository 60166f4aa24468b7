package srchash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalSortsKeys(t *testing.T) {
	doc := map[string]any{
		"b": "2",
		"a": "1",
		"c": map[string]any{"y": float64(2), "x": float64(1)},
	}
	assert.Equal(t, `{"a":"1","b":"2","c":{"x":1,"y":2}}`, Canonical(doc))
}

func TestCanonicalScalars(t *testing.T) {
	doc := map[string]any{
		"int":    float64(12),
		"frac":   12.5,
		"flag":   true,
		"no":     false,
		"gone":   nil,
		"list":   []any{float64(1), "two", nil},
		"quoted": `he said "hi"`,
	}
	got := Canonical(doc)
	assert.Contains(t, got, `"int":12`)
	assert.Contains(t, got, `"frac":12.5`)
	assert.Contains(t, got, `"flag":true`)
	assert.Contains(t, got, `"no":false`)
	assert.Contains(t, got, `"gone":null`)
	assert.Contains(t, got, `"list":[1,"two",null]`)
	assert.Contains(t, got, `"quoted":"he said \"hi\""`)
}

func TestSumStableAcrossKeyOrder(t *testing.T) {
	a := map[string]any{"id": float64(42), "name": "Jane", "cohort": "12"}
	b := map[string]any{"cohort": "12", "name": "Jane", "id": float64(42)}
	assert.Equal(t, Sum(a), Sum(b))
}

func TestSumWholeFloatMatchesInt(t *testing.T) {
	a := map[string]any{"id": float64(12)}
	b := map[string]any{"id": 12.0}
	assert.Equal(t, Sum(a), Sum(b))
	assert.Equal(t, `{"id":12}`, Canonical(a))
}

func TestSumDiffersOnContent(t *testing.T) {
	a := map[string]any{"status": float64(1)}
	b := map[string]any{"status": float64(2)}
	assert.NotEqual(t, Sum(a), Sum(b))
}
