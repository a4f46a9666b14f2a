package symbols

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mvp-joe/phpscan/internal/trinary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Cache:
// - Round-trips class names, kinds, heritage and method names
// - Restored classes answer method queries but not signature queries
// - Static properties are not persisted and stay unknown after restore
// - Misses on absent, corrupt or version-mismatched cache files
// - Misses when the vendor directory or classmap mtime changed
// - Save writes atomically and leaves no temp file behind
// - Clear removes the cache file and tolerates a missing one

func vendorFixture(t *testing.T) (projectDir, vendorDir, classmapPath string) {
	t.Helper()

	projectDir = t.TempDir()
	vendorDir = filepath.Join(projectDir, "vendor")
	require.NoError(t, os.MkdirAll(filepath.Join(vendorDir, "composer"), 0755))
	classmapPath = filepath.Join(vendorDir, "composer", "autoload_classmap.php")
	require.NoError(t, os.WriteFile(classmapPath, []byte("<?php return array();\n"), 0644))
	return projectDir, vendorDir, classmapPath
}

func vendorTable() *Table {
	table := NewTable()

	base := ClassFromFQN(`Vendor\Lib\Base`)
	base.AddMethod(MethodInfo{
		Name:       "connect",
		Parameters: []ParameterInfo{{Name: "dsn", Type: "string"}},
		IsStatic:   true,
	})
	table.RegisterClass(base)

	client := ClassFromFQN(`Vendor\Lib\Client`)
	client.Parent = `Vendor\Lib\Base`
	client.Interfaces = []string{`Vendor\Lib\ClientInterface`}
	client.Traits = []string{`Vendor\Lib\RetryTrait`}
	client.AddMethod(MethodInfo{Name: "send"})
	client.AddStaticProperty("instances")
	table.RegisterClass(client)

	iface := ClassFromFQN(`Vendor\Lib\ClientInterface`)
	iface.Kind = KindInterface
	iface.MarkMethodsKnown()
	table.RegisterClass(iface)

	return table
}

func TestCache_RoundTrip(t *testing.T) {
	t.Parallel()

	projectDir, vendorDir, classmapPath := vendorFixture(t)
	cache := ForProject(projectDir, nil)

	require.NoError(t, cache.Save(vendorTable(), vendorDir, classmapPath))

	restored, ok := cache.Load(vendorDir, classmapPath)
	require.True(t, ok, "unchanged vendor tree should hit the cache")

	client, found := restored.Class(`Vendor\Lib\Client`)
	require.True(t, found)
	assert.Equal(t, "Client", client.Name)
	assert.Equal(t, KindClass, client.Kind)
	assert.Equal(t, `Vendor\Lib\Base`, client.Parent)
	assert.Equal(t, []string{`Vendor\Lib\ClientInterface`}, client.Interfaces)
	assert.Equal(t, []string{`Vendor\Lib\RetryTrait`}, client.Traits)

	iface, found := restored.Class(`Vendor\Lib\ClientInterface`)
	require.True(t, found)
	assert.Equal(t, KindInterface, iface.Kind)

	// Test: method names survive, signatures do not
	assert.True(t, client.MethodsKnown())
	assert.True(t, client.HasMethod("send"))
	send, ok := client.Method("send")
	require.True(t, ok)
	assert.Empty(t, send.Parameters)

	// Test: method queries stay definitive through the restored hierarchy
	assert.Equal(t, trinary.Yes, restored.ClassHasMethod(`Vendor\Lib\Client`, "connect"))

	// Test: the trait was never cached, so a miss is inconclusive
	assert.Equal(t, trinary.Maybe, restored.ClassHasMethod(`Vendor\Lib\Client`, "nonexistent"))

	// Test: static properties were not persisted
	assert.False(t, client.StaticPropertiesKnown())
	assert.Equal(t, trinary.Maybe, restored.ClassHasStaticProperty(`Vendor\Lib\Client`, "instances"))
}

func TestCache_MissWhenAbsent(t *testing.T) {
	t.Parallel()

	projectDir, vendorDir, classmapPath := vendorFixture(t)
	cache := ForProject(projectDir, nil)

	_, ok := cache.Load(vendorDir, classmapPath)
	assert.False(t, ok)
}

func TestCache_MissOnCorruptFile(t *testing.T) {
	t.Parallel()

	projectDir, vendorDir, classmapPath := vendorFixture(t)
	cache := ForProject(projectDir, nil)

	require.NoError(t, os.MkdirAll(filepath.Dir(cache.FilePath()), 0755))
	require.NoError(t, os.WriteFile(cache.FilePath(), []byte("{not json"), 0644))

	_, ok := cache.Load(vendorDir, classmapPath)
	assert.False(t, ok)
}

func TestCache_MissOnVersionMismatch(t *testing.T) {
	t.Parallel()

	projectDir, vendorDir, classmapPath := vendorFixture(t)
	cache := ForProject(projectDir, nil)

	stale := cachedSymbols{
		Version:       cacheVersion - 1,
		VendorMtime:   modTimeUnix(vendorDir),
		ClassmapMtime: modTimeUnix(classmapPath),
		Classes:       map[string]cachedClass{},
	}
	data, err := json.Marshal(stale)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(cache.FilePath()), 0755))
	require.NoError(t, os.WriteFile(cache.FilePath(), data, 0644))

	_, ok := cache.Load(vendorDir, classmapPath)
	assert.False(t, ok)
}

func TestCache_MissWhenVendorChanged(t *testing.T) {
	t.Parallel()

	projectDir, vendorDir, classmapPath := vendorFixture(t)
	cache := ForProject(projectDir, nil)
	require.NoError(t, cache.Save(vendorTable(), vendorDir, classmapPath))

	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(vendorDir, past, past))

	_, ok := cache.Load(vendorDir, classmapPath)
	assert.False(t, ok)
}

func TestCache_MissWhenClassmapChanged(t *testing.T) {
	t.Parallel()

	projectDir, vendorDir, classmapPath := vendorFixture(t)
	cache := ForProject(projectDir, nil)
	require.NoError(t, cache.Save(vendorTable(), vendorDir, classmapPath))

	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(classmapPath, past, past))

	_, ok := cache.Load(vendorDir, classmapPath)
	assert.False(t, ok)
}

func TestCache_SaveIsAtomic(t *testing.T) {
	t.Parallel()

	projectDir, vendorDir, classmapPath := vendorFixture(t)
	cache := ForProject(projectDir, nil)
	require.NoError(t, cache.Save(vendorTable(), vendorDir, classmapPath))

	_, err := os.Stat(cache.FilePath())
	require.NoError(t, err)

	_, err = os.Stat(cache.FilePath() + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp file should be renamed away")
}

func TestCache_Clear(t *testing.T) {
	t.Parallel()

	projectDir, vendorDir, classmapPath := vendorFixture(t)
	cache := ForProject(projectDir, nil)
	require.NoError(t, cache.Save(vendorTable(), vendorDir, classmapPath))

	require.NoError(t, cache.Clear())
	_, ok := cache.Load(vendorDir, classmapPath)
	assert.False(t, ok)

	// Clearing again is not an error.
	require.NoError(t, cache.Clear())
}
