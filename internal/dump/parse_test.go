package dump

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSingleBlock(t *testing.T) {
	text := "# file: /etc/motd\nuser.comment=\"hello\"\nuser.checksum=0xdeadbeef\n"

	d, err := Parse(text)
	require.NoError(t, err)
	require.Len(t, d, 1)

	rec := d[0]
	assert.Equal(t, "/etc/motd", rec.Path)
	require.Len(t, rec.Attrs, 2)
	assert.Equal(t, Entry{Name: "user.comment", Value: `"hello"`}, rec.Attrs[0])
	assert.Equal(t, Entry{Name: "user.checksum", Value: "0xdeadbeef"}, rec.Attrs[1])
}

func TestParseHeaderOrdering(t *testing.T) {
	text := "# file: /a\nuser.one=1\n\n# file: /b\nuser.two=2\nuser.three=3\n\n# file: /c\n"

	d, err := Parse(text)
	require.NoError(t, err)
	require.Equal(t, []string{"/a", "/b", "/c"}, d.Paths())

	assert.Equal(t, []Entry{{Name: "user.one", Value: "1"}}, d[0].Attrs)
	assert.Equal(t, []Entry{{Name: "user.two", Value: "2"}, {Name: "user.three", Value: "3"}}, d[1].Attrs)
	assert.Empty(t, d[2].Attrs)
}

func TestParseAttributeBeforeHeader(t *testing.T) {
	_, err := Parse("user.orphan=1\n# file: /a\n")
	require.Error(t, err)
	assert.True(t, IsMalformed(err))
	assert.Contains(t, err.Error(), "line 1")
}

func TestParseIgnoresNoise(t *testing.T) {
	// Blank lines, free-form comments, bare names and empty values all fall
	// outside the two recognized line forms and are skipped.
	text := "\n# getfattr output follows\n# file: /a\n\nuser.a=1\nuser.noval=\njust-a-name\n"

	d, err := Parse(text)
	require.NoError(t, err)
	require.Len(t, d, 1)
	assert.Equal(t, []Entry{{Name: "user.a", Value: "1"}}, d[0].Attrs)
}

func TestParsePathWithSpaces(t *testing.T) {
	d, err := Parse("# file: /tmp/with space/and#hash\nuser.a=1\n")
	require.NoError(t, err)
	require.Len(t, d, 1)
	assert.Equal(t, "/tmp/with space/and#hash", d[0].Path)
}

func TestRoundTrip(t *testing.T) {
	records := []Record{
		{Path: "/plain", Attrs: []Entry{{Name: "user.a", Value: "1"}}},
		{
			Path: "/mixed encodings",
			Attrs: []Entry{
				{Name: "user.text", Value: `"with \"escapes\" and spaces"`},
				{Name: "user.hex", Value: "0x00ff10"},
				{Name: "user.b64", Value: "0sQUJD"},
				{Name: "user.raw", Value: "bare value with = signs"},
			},
		},
		{Path: "/empty"},
		{Path: "/unicode", Attrs: []Entry{{Name: "user.náme", Value: `"héllo"`}}},
	}

	for _, rec := range records {
		t.Run(rec.Path, func(t *testing.T) {
			parsed, err := Parse(rec.String())
			require.NoError(t, err)
			require.Equal(t, Dump{rec}, parsed)
		})
	}

	// The full dump round-trips as one text, too.
	d := Dump(records)
	parsed, err := Parse(d.String())
	require.NoError(t, err)
	require.Equal(t, d, parsed)
}

func TestDumpFind(t *testing.T) {
	d := Dump{{Path: "/a"}, {Path: "/b", Attrs: []Entry{{Name: "user.x", Value: "1"}}}}

	rec, ok := d.Find("/b")
	require.True(t, ok)
	v, ok := rec.Find("user.x")
	require.True(t, ok)
	assert.Equal(t, "1", v)

	_, ok = d.Find("/missing")
	assert.False(t, ok)
	assert.False(t, rec.Has("user.missing"))
}

func TestSameAttrs(t *testing.T) {
	base := Record{Path: "/a", Attrs: []Entry{{Name: "user.a", Value: "1"}, {Name: "user.b", Value: "2"}}}

	reordered := Record{Path: "/a", Attrs: []Entry{{Name: "user.b", Value: "2"}, {Name: "user.a", Value: "1"}}}
	assert.True(t, base.SameAttrs(reordered), "order must not matter")

	changed := Record{Path: "/a", Attrs: []Entry{{Name: "user.a", Value: "1"}, {Name: "user.b", Value: "9"}}}
	assert.False(t, base.SameAttrs(changed))

	shrunk := Record{Path: "/a", Attrs: []Entry{{Name: "user.a", Value: "1"}}}
	assert.False(t, base.SameAttrs(shrunk))
	assert.False(t, shrunk.SameAttrs(base))
}
