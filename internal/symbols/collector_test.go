package symbols

import (
	"testing"

	"github.com/mvp-joe/phpscan/internal/phpast"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Collect and BuildTable:
// - Collects classes with namespace, kind, heritage and line numbers
// - Resolves extends/implements/trait-use through import aliases
// - Collects method signatures including static and variadic markers
// - Collects only static properties, keeping their exact case
// - Records import aliases from plain, aliased and grouped use statements
// - Skips function and const imports
// - Registers implicit enum methods alongside declared ones
// - Handles braced namespaces, nested functions and multi-const declarations
// - Leaves conditionally declared symbols uncollected
// - BuildTable wires collected files into a queryable table

func collectSource(t *testing.T, path, source string) *FileSymbols {
	t.Helper()

	file, err := phpast.Parse(path, []byte(source))
	require.NoError(t, err)
	t.Cleanup(file.Close)
	return Collect(file)
}

func TestCollect_ClassWithHeritage(t *testing.T) {
	t.Parallel()

	fs := collectSource(t, "/src/Models/User.php", `<?php

namespace App\Models;

use App\Contracts\Persistable;
use App\Support\LogsActivity as Recorder;

class User extends Model implements Persistable, \JsonSerializable
{
    use Recorder;

    public static $connection;
    public $name;
    private static $instances = [];

    public function getName(): string
    {
        return $this->name;
    }

    public static function create(string $name, array $attributes = [], ...$extra)
    {
        return new static();
    }
}
`)

	require.Len(t, fs.Classes, 1)
	class := fs.Classes[0]

	assert.Equal(t, "User", class.Name)
	assert.Equal(t, `App\Models\User`, class.FullName)
	assert.Equal(t, KindClass, class.Kind)
	assert.Equal(t, "/src/Models/User.php", class.File)
	assert.Equal(t, 8, class.Line)

	// Test: heritage names resolve through the namespace and aliases
	assert.Equal(t, `App\Models\Model`, class.Parent)
	assert.Equal(t, []string{`App\Contracts\Persistable`, "JsonSerializable"}, class.Interfaces)
	assert.Equal(t, []string{`App\Support\LogsActivity`}, class.Traits)

	// Test: method signatures
	require.True(t, class.MethodsKnown())
	getName, ok := class.Method("getname")
	require.True(t, ok)
	assert.Equal(t, "getName", getName.Name)
	assert.False(t, getName.IsStatic)
	assert.Empty(t, getName.Parameters)

	create, ok := class.Method("create")
	require.True(t, ok)
	assert.True(t, create.IsStatic)
	require.Len(t, create.Parameters, 3)
	assert.Equal(t, "name", create.Parameters[0].Name)
	assert.Equal(t, "string", create.Parameters[0].Type)
	assert.False(t, create.Parameters[0].HasDefault)
	assert.True(t, create.Parameters[1].HasDefault)
	assert.True(t, create.Parameters[2].Variadic)
	assert.Equal(t, 1, create.RequiredArgs())
	_, bounded := create.MaxArgs()
	assert.False(t, bounded)

	// Test: only static properties are collected
	require.True(t, class.StaticPropertiesKnown())
	assert.Equal(t, []string{"connection", "instances"}, class.StaticPropertyNames())
	assert.False(t, class.HasStaticProperty("name"))

	// Test: import aliases recorded for the file
	assert.Equal(t, map[string]string{
		"Persistable": `App\Contracts\Persistable`,
		"Recorder":    `App\Support\LogsActivity`,
	}, fs.Aliases)
}

func TestCollect_UseStatementVariants(t *testing.T) {
	t.Parallel()

	fs := collectSource(t, "/src/imports.php", `<?php

use App\Services\Mailer;
use App\Services\Queue as JobQueue;
use App\Models\{User, Order as PurchaseOrder};
use function App\Helpers\formatDate;
use const App\Helpers\MAX_RETRIES;
`)

	assert.Equal(t, map[string]string{
		"Mailer":        `App\Services\Mailer`,
		"JobQueue":      `App\Services\Queue`,
		"User":          `App\Models\User`,
		"PurchaseOrder": `App\Models\Order`,
	}, fs.Aliases)

	// Function and const imports are tracked separately so they never
	// shadow class name resolution.
	assert.Equal(t, map[string]string{"formatDate": `App\Helpers\formatDate`}, fs.FunctionAliases)
	assert.Equal(t, map[string]string{"MAX_RETRIES": `App\Helpers\MAX_RETRIES`}, fs.ConstantAliases)
}

func TestCollect_GroupedFunctionImports(t *testing.T) {
	t.Parallel()

	fs := collectSource(t, "/src/imports.php", `<?php

use App\Support\{Arr, function head, const DELIMITER};
`)

	assert.Equal(t, map[string]string{"Arr": `App\Support\Arr`}, fs.Aliases)
	assert.Equal(t, map[string]string{"head": `App\Support\head`}, fs.FunctionAliases)
	assert.Equal(t, map[string]string{"DELIMITER": `App\Support\DELIMITER`}, fs.ConstantAliases)
}

func TestCollect_FileNamespace(t *testing.T) {
	t.Parallel()

	fs := collectSource(t, "/src/Service.php", `<?php

namespace App\Services;

class Service {}
`)
	assert.Equal(t, `App\Services`, fs.Namespace)

	global := collectSource(t, "/src/script.php", `<?php
$x = 1;
`)
	assert.Equal(t, "", global.Namespace)
}

func TestCollect_InterfaceExtendsList(t *testing.T) {
	t.Parallel()

	fs := collectSource(t, "/src/Comparable.php", `<?php

interface Comparable extends Equatable, \Countable
{
    public function compareTo($other): int;
}
`)

	require.Len(t, fs.Classes, 1)
	iface := fs.Classes[0]
	assert.Equal(t, KindInterface, iface.Kind)
	assert.Equal(t, "", iface.Parent)
	assert.Equal(t, []string{"Equatable", "Countable"}, iface.Interfaces)
	assert.True(t, iface.HasMethod("compareTo"))
}

func TestCollect_EnumImplicitMethods(t *testing.T) {
	t.Parallel()

	fs := collectSource(t, "/src/Status.php", `<?php

namespace App;

enum Status: string
{
    case Active = 'active';
    case Archived = 'archived';

    public function label(): string
    {
        return ucfirst($this->value);
    }
}
`)

	require.Len(t, fs.Classes, 1)
	enum := fs.Classes[0]
	assert.Equal(t, KindEnum, enum.Kind)
	assert.Equal(t, `App\Status`, enum.FullName)

	assert.True(t, enum.HasMethod("label"))
	assert.True(t, enum.HasMethod("cases"))
	assert.True(t, enum.HasMethod("TRYFROM"), "implicit methods resolve case-insensitively")

	from, ok := enum.Method("from")
	require.True(t, ok)
	assert.True(t, from.IsStatic)
	assert.Equal(t, 1, from.RequiredArgs())
}

func TestCollect_FunctionsAndNesting(t *testing.T) {
	t.Parallel()

	fs := collectSource(t, "/src/jobs.php", `<?php

namespace App\Jobs;

function dispatch(string $job, int &$priority, callable ...$callbacks): bool
{
    function cleanup() {}
    return true;
}

function &current_job()
{
    return $GLOBALS['job'];
}
`)

	require.Len(t, fs.Functions, 3)

	byName := make(map[string]*FunctionInfo)
	for _, fn := range fs.Functions {
		byName[fn.Name] = fn
	}

	dispatch := byName["dispatch"]
	require.NotNil(t, dispatch)
	assert.Equal(t, `App\Jobs\dispatch`, dispatch.FullName)
	assert.Equal(t, "bool", dispatch.ReturnType)
	assert.Equal(t, 5, dispatch.Line)
	require.Len(t, dispatch.Parameters, 3)
	assert.True(t, dispatch.Parameters[1].ByReference)
	assert.True(t, dispatch.Parameters[2].Variadic)
	assert.Equal(t, "callable", dispatch.Parameters[2].Type)
	assert.Equal(t, 2, dispatch.RequiredArgs())

	// Test: nested named functions register under the same namespace
	cleanup := byName["cleanup"]
	require.NotNil(t, cleanup)
	assert.Equal(t, `App\Jobs\cleanup`, cleanup.FullName)

	current := byName["current_job"]
	require.NotNil(t, current)
	assert.True(t, current.ReturnsReference)
}

func TestCollect_BracedNamespaces(t *testing.T) {
	t.Parallel()

	fs := collectSource(t, "/src/multi.php", `<?php

namespace First {
    class Alpha {}
    const LIMIT = 10;
}

namespace Second {
    class Beta {}
}

namespace {
    class GlobalThing {}
}
`)

	require.Len(t, fs.Classes, 3)
	assert.Equal(t, `First\Alpha`, fs.Classes[0].FullName)
	assert.Equal(t, `Second\Beta`, fs.Classes[1].FullName)
	assert.Equal(t, "GlobalThing", fs.Classes[2].FullName)
	assert.Equal(t, []string{`First\LIMIT`}, fs.Constants)
}

func TestCollect_MultiConstDeclaration(t *testing.T) {
	t.Parallel()

	fs := collectSource(t, "/src/constants.php", `<?php

namespace App;

const MAX_ATTEMPTS = 3, TIMEOUT = 30;
`)

	assert.Equal(t, []string{`App\MAX_ATTEMPTS`, `App\TIMEOUT`}, fs.Constants)
}

func TestCollect_ConditionalDeclarationsSkipped(t *testing.T) {
	t.Parallel()

	fs := collectSource(t, "/src/legacy.php", `<?php

if (!class_exists('Legacy')) {
    class Legacy {}
}

function always() {}
`)

	assert.Empty(t, fs.Classes, "declarations behind a condition stay uncollected")
	require.Len(t, fs.Functions, 1)
	assert.Equal(t, "always", fs.Functions[0].Name)
}

func TestBuildTable(t *testing.T) {
	t.Parallel()

	models := collectSource(t, "/src/Models/Order.php", `<?php

namespace App\Models;

class Order
{
    public function total(): float { return 0.0; }
}
`)

	helpers := collectSource(t, "/src/helpers.php", `<?php

namespace App;

use App\Models\Order;

const VERSION = '1.0';

function recent_orders(int $limit = 10): array { return []; }
`)

	table := BuildTable([]*FileSymbols{models, helpers})

	assert.True(t, table.ClassExists(`App\Models\Order`))
	assert.True(t, table.FunctionExists(`app\recent_orders`))
	assert.True(t, table.ConstantExists(`App\VERSION`))

	// Test: aliases feed cross-file name resolution
	assert.Equal(t, `App\Models\Order`,
		table.ResolveClassName("Order", "/src/helpers.php", "App"))

	fn, ok := table.Function(`App\recent_orders`)
	require.True(t, ok)
	assert.Equal(t, 0, fn.RequiredArgs())
	max, bounded := fn.MaxArgs()
	require.True(t, bounded)
	assert.Equal(t, 1, max)
}
