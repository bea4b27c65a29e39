package registry_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mScule/stall/lang/types"
	"github.com/mScule/stall/registry"
)

func TestRegisterAndLookup(t *testing.T) {
	r := registry.New()
	fn := &types.Function{Name: "main"}
	require.NoError(t, r.Register("main", fn))

	got, ok := r.Lookup("main")
	require.True(t, ok)
	require.Same(t, fn, got)

	_, ok = r.Lookup("missing")
	require.False(t, ok)
}

func TestRegisterDuplicateFails(t *testing.T) {
	r := registry.New()
	require.NoError(t, r.Register("main", &types.Function{Name: "main"}))
	err := r.Register("main", &types.Function{Name: "main"})
	require.Error(t, err)
}

func TestLoadSourcePrefixesNames(t *testing.T) {
	r := registry.New()
	require.NoError(t, r.LoadSource("double { return }", "math."))

	_, ok := r.Lookup("math.double")
	require.True(t, ok)
}

func TestLoadFilesNamespacesByPath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.funcs"), []byte("main { return }"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "std"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "std", "io.funcs"), []byte("read { return }"), 0o644))

	r, err := registry.LoadFiles(dir)
	require.NoError(t, err)

	_, ok := r.Lookup("main.main")
	require.True(t, ok)
	_, ok = r.Lookup("std/io.read")
	require.True(t, ok)
}
