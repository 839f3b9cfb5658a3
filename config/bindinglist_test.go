package config

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadBindingList(t *testing.T) {
	require := require.New(t)

	bl, err := LoadBindingList(strings.NewReader(`
# comment
[enabled]
geo::Point => Pt "A point."
geo::area

[disabled]
geo::shapes::Secret   "Not for Dart."
`), "bindings.txt")
	require.NoError(err)
	require.Equal(map[string]bool{
		"geo::Point":          true,
		"geo::area":           true,
		"geo::shapes::Secret": false,
	}, bl.Enabled)
	require.Equal(map[string]string{"geo::Point": "Pt"}, bl.Renames)
	require.True(bl.IsEnabled("geo::area"))
	require.False(bl.IsEnabled("geo::shapes::Secret"))
	require.True(bl.IsEnabled("geo::NotListed"))
	require.Equal([]string{"geo::Point", "geo::area", "geo::shapes::Secret"}, bl.Names())
}

func TestLoadBindingListErrors(t *testing.T) {
	for name, src := range map[string]string{
		"no section":      "geo::Point\n",
		"unknown section": "[maybe]\ngeo::Point\n",
		"both sections":   "[enabled]\ngeo::Point\n[disabled]\ngeo::Point\n",
		"missing rename":  "[enabled]\ngeo::Point =>\n",
		"invalid rename":  "[enabled]\ngeo::Point => 2d\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := LoadBindingList(strings.NewReader(src), "bindings.txt")
			require.Error(t, err)
			require.Contains(t, err.Error(), "bindings.txt: line ")
		})
	}
}

func TestBindingListWrite(t *testing.T) {
	require := require.New(t)

	bl := NewBindingList()
	bl.Enabled["geo::Point"] = true
	bl.Enabled["geo::Secret"] = false
	bl.Enabled["geo::Removed"] = false
	bl.Renames["geo::Point"] = "Pt"

	docs := map[string]string{
		"geo::Point":  "A point.\nWith two coordinates.",
		"geo::Secret": "",
		"geo::area":   "Area.",
	}
	var buf bytes.Buffer
	bl.Write(&buf, docs)
	out := buf.String()

	require.Contains(out, "\n[enabled]\ngeo::Point => Pt \"A point.\"\ngeo::area        \"Area.\"\n")
	require.Contains(out, "\n[disabled]\ngeo::Secret\n")
	require.NotContains(out, "geo::Removed")

	reloaded, err := LoadBindingList(&buf, "bindings.txt")
	require.NoError(err)
	require.Equal(map[string]bool{
		"geo::Point":  true,
		"geo::Secret": false,
		"geo::area":   true,
	}, reloaded.Enabled)
	require.Equal(bl.Renames, reloaded.Renames)
}

func TestBindingListFile(t *testing.T) {
	require := require.New(t)

	filename := filepath.Join(t.TempDir(), "bindings.txt")
	bl := NewBindingList()
	bl.Enabled["geo::Hidden"] = false
	require.NoError(bl.SaveToFile(filename, map[string]string{"geo::Hidden": "", "geo::Shown": ""}))

	loaded, err := LoadBindingListFromFile(filename)
	require.NoError(err)
	require.False(loaded.IsEnabled("geo::Hidden"))
	require.True(loaded.IsEnabled("geo::Shown"))
}
