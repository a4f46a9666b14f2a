package composer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for vendor autoload artifact scanning:
// - Extracts class names from autoload_classmap.php, unescaping backslashes
// - Extracts namespace mappings from autoload_psr4.php, keeping only
//   directories that exist
// - Finds artifacts by walking upward from a nested directory
// - Missing artifacts report not-found instead of erroring

const classmapContent = `<?php

// autoload_classmap.php @generated by Composer

$vendorDir = dirname(__DIR__);
$baseDir = dirname($vendorDir);

return array(
    'App\\Util\\Helper' => $baseDir . '/src/Util/Helper.php',
    'Monolog\\Logger' => $vendorDir . '/monolog/monolog/src/Monolog/Logger.php',
    'Composer\\InstalledVersions' => $vendorDir . '/composer/InstalledVersions.php',
);
`

const psr4Content = `<?php

// autoload_psr4.php @generated by Composer

$vendorDir = dirname(__DIR__);
$baseDir = dirname($vendorDir);

return array(
    'Psr\\Log\\' => array($vendorDir . '/psr/log/src'),
    'Psr\\Http\\Message\\' => array($vendorDir . '/psr/http-factory/src', $vendorDir . '/psr/http-message/src'),
);
`

func writeVendorFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestClassmapScanner_Classes(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	path := writeVendorFile(t, root, "vendor/composer/autoload_classmap.php", classmapContent)

	nested := filepath.Join(root, "src", "deep")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	scanner, ok := FindClassmap(nested)
	require.True(t, ok)
	assert.Equal(t, path, scanner.Path())

	classes := scanner.Classes()
	assert.Equal(t, []string{
		`App\Util\Helper`,
		`Monolog\Logger`,
		`Composer\InstalledVersions`,
	}, classes)
}

func TestClassmapScanner_NotFound(t *testing.T) {
	t.Parallel()

	_, ok := FindClassmap(t.TempDir())
	assert.False(t, ok)
}

func TestVendorPsr4Scanner_Mappings(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeVendorFile(t, root, "vendor/composer/autoload_psr4.php", psr4Content)

	// Only two of the three declared directories exist on disk.
	require.NoError(t, os.MkdirAll(filepath.Join(root, "vendor", "psr", "log", "src"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "vendor", "psr", "http-message", "src"), 0o755))

	scanner, ok := FindVendorPsr4(root)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, "vendor"), scanner.VendorDir())

	mappings := scanner.Mappings()
	require.Len(t, mappings, 2)

	assert.Equal(t, `Psr\Log\`, mappings[0].NamespacePrefix)
	assert.Equal(t, []string{filepath.Join(root, "vendor", "psr", "log", "src")}, mappings[0].Directories)

	assert.Equal(t, `Psr\Http\Message\`, mappings[1].NamespacePrefix)
	assert.Equal(t, []string{filepath.Join(root, "vendor", "psr", "http-message", "src")}, mappings[1].Directories)
}

func TestVendorPsr4Scanner_PrefersLargerArtifact(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	// Both probe locations exist; the libs one carries more content.
	writeVendorFile(t, root, "vendor/composer/autoload_psr4.php", "<?php return array();\n")
	libsPath := writeVendorFile(t, root, "libs/vendor/composer/autoload_psr4.php", psr4Content)

	scanner, ok := FindVendorPsr4(root)
	require.True(t, ok)
	assert.Equal(t, filepath.Dir(filepath.Dir(libsPath)), scanner.VendorDir())
}
