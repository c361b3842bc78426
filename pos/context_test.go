package pos

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestNewContext(t *testing.T) {
	context := newContext([]string{"The", "well-known", "1999", "5th"})
	expected := []string{"-START-", "-START2-", "the", "!HYPHEN", "!YEAR", "!DIGITS", "-END-", "-END2-"}
	if diff := cmp.Diff(expected, context); diff != "" {
		t.Errorf("context mismatch (-expected +got):\n%s", diff)
	}

	assert.Equal(t, []string{"-START-", "-START2-", "-END-", "-END2-"}, newContext(nil))
}

func TestGetFeaturesFirstToken(t *testing.T) {
	context := newContext([]string{"The", "dogs", "run"})
	fs := getFeatures(2, "The", context, startTag, start2Tag)

	expected := []string{
		"bias",
		"i suffix The",
		"i pref1 h",
		"i-1 tag -START-",
		"i-2 tag -START2-",
		"i tag+i-2 tag -START- -START2-",
		"i word the",
		"i-1 tag+i word -START- the",
		"i-1 word -START2-",
		"i-2 word -START-",
		"i+1 word dogs",
		"i+2 word run",
		"i+1 suffix ogs",
		"i-1 suffix T2-",
	}
	if diff := cmp.Diff(expected, fs.Names()); diff != "" {
		t.Errorf("features mismatch (-expected +got):\n%s", diff)
	}
	for _, v := range fs.Values() {
		assert.Equal(t, 1, v.Value)
	}
}

func TestGetFeaturesLastToken(t *testing.T) {
	context := newContext([]string{"Dogs", "run"})
	fs := getFeatures(3, "run", context, "NNS", "-START-")

	expected := []string{
		"bias",
		"i suffix run",
		"i pref1 u",
		"i-1 tag NNS",
		"i-2 tag -START-",
		"i tag+i-2 tag NNS -START-",
		"i word run",
		"i-1 tag+i word NNS run",
		"i-1 word dogs",
		"i-2 word -START2-",
		"i+1 word -END-",
		"i+2 word -END2-",
		"i+1 suffix ND-",
		"i-1 suffix ogs",
	}
	if diff := cmp.Diff(expected, fs.Names()); diff != "" {
		t.Errorf("features mismatch (-expected +got):\n%s", diff)
	}
}

func TestGetFeaturesShortToken(t *testing.T) {
	context := newContext([]string{"a"})
	fs := getFeatures(2, "a", context, startTag, start2Tag)

	names := fs.Names()
	assert.Contains(t, names, "i suffix a")
	for _, name := range names {
		assert.NotContains(t, name, "i pref1")
	}
	assert.Len(t, names, 13)
}

func TestFeatureSetCountsOnce(t *testing.T) {
	fs := newFeatureSet(2)
	fs.add("i word", "dog")
	fs.add("i word", "dog")
	fs.add("i word dog")
	fs.add("bias")

	assert.Equal(t, []string{"i word dog", "bias"}, fs.Names())
	for _, v := range fs.Values() {
		assert.Equal(t, 1, v.Value)
	}
}

func TestSuffixAndSecondCharUseRunes(t *testing.T) {
	assert.Equal(t, "ïve", suffix("naïve"))
	assert.Equal(t, "go", suffix("go"))
	assert.Equal(t, "", suffix(""))
	assert.Equal(t, "日本語", suffix("日本語"))

	second, ok := secondChar("éé")
	assert.True(t, ok)
	assert.Equal(t, "é", second)

	_, ok = secondChar("é")
	assert.False(t, ok)
}
