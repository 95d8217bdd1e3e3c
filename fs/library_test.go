package fs_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/fwojciec/structura"
	"github.com/fwojciec/structura/fs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func writeBlueprint(t *testing.T, dir, name, schema string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(schema), 0o644))
}

func TestLoadLibrary_LoadsDomains(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeBlueprint(t, dir, "news.json", `{"type":"object","properties":{"headline":{"type":"string"}}}`)
	writeBlueprint(t, dir, "recipes.json", `{"type":"object"}`)
	writeBlueprint(t, dir, "README.md", "not a blueprint")

	lib, err := fs.LoadLibrary(dir, discard())
	require.NoError(t, err)

	bp, ok := lib.OpenBlueprint("news")
	require.True(t, ok)
	assert.Equal(t, "news", bp.Domain)
	assert.Equal(t, structura.VisibilityOpen, bp.Visibility)
	assert.JSONEq(t, `{"type":"object","properties":{"headline":{"type":"string"}}}`, string(bp.Schema))

	_, ok = lib.OpenBlueprint("README")
	assert.False(t, ok, "non-json files are ignored")

	assert.Equal(t, []string{"news", "recipes"}, lib.Domains())
}

func TestLoadLibrary_AliasesEcommerceSpellings(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeBlueprint(t, dir, "e-commerce.json", `{"type":"object"}`)

	lib, err := fs.LoadLibrary(dir, discard())
	require.NoError(t, err)

	hyphenated, ok := lib.OpenBlueprint("e-commerce")
	require.True(t, ok)
	plain, ok := lib.OpenBlueprint("ecommerce")
	require.True(t, ok)

	assert.Equal(t, "e-commerce", hyphenated.Domain)
	assert.Equal(t, "ecommerce", plain.Domain)
	assert.JSONEq(t, string(hyphenated.Schema), string(plain.Schema))
}

func TestLoadLibrary_SkipsMalformedFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeBlueprint(t, dir, "broken.json", `{"type":`)
	writeBlueprint(t, dir, "news.json", `{"type":"object"}`)

	lib, err := fs.LoadLibrary(dir, discard())
	require.NoError(t, err)

	_, ok := lib.OpenBlueprint("broken")
	assert.False(t, ok, "malformed blueprint files are skipped")
	_, ok = lib.OpenBlueprint("news")
	assert.True(t, ok, "valid files still load")
}

func TestLoadLibrary_MissingDirectory(t *testing.T) {
	t.Parallel()

	lib, err := fs.LoadLibrary(filepath.Join(t.TempDir(), "nope"), discard())
	require.NoError(t, err)
	assert.Empty(t, lib.Domains())
}
