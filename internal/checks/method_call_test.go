package checks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for UndefinedMethod:
// - A $this call to a method missing from the enclosing class is reported
//   with the qualified class name at the method token
// - Own, inherited and trait methods resolve, case-insensitively
// - Unknown ancestors and __call suppress reports
// - Dynamic method names and non-$this receivers are skipped

func TestUndefinedMethod_ReportsMissing(t *testing.T) {
	t.Parallel()

	source := `<?php
class Order {
    public function total(): int {
        return $this->subtotal();
    }
}
`
	issues := runCheck(t, UndefinedMethod{}, source, nil)

	require.Len(t, issues, 1)
	assert.Equal(t, "Call to an undefined method Order::subtotal().", issues[0].Message)
	assert.Equal(t, "method.notFound", issues[0].Identifier)
	assert.Equal(t, 4, issues[0].Line)
	assert.Equal(t, 23, issues[0].Column)
}

func TestUndefinedMethod_QualifiedNameInNamespace(t *testing.T) {
	t.Parallel()

	source := `<?php
namespace App\Billing;

class Invoice {
    public function send(): void {
        $this->deliver();
    }
}
`
	issues := runCheck(t, UndefinedMethod{}, source, nil)

	require.Len(t, issues, 1)
	assert.Equal(t, `Call to an undefined method App\Billing\Invoice::deliver().`, issues[0].Message)
}

func TestUndefinedMethod_OwnAndInherited(t *testing.T) {
	t.Parallel()

	source := `<?php
class Base {
    protected function ping(): void {}
}
class Child extends Base {
    public function run(): void {
        $this->PING();
        $this->helper();
    }
    private function helper(): void {}
}
`
	assert.Empty(t, runCheck(t, UndefinedMethod{}, source, nil))
}

func TestUndefinedMethod_TraitMethodsResolve(t *testing.T) {
	t.Parallel()

	source := `<?php
trait Greets {
    public function greet(): string {
        return "hi";
    }
}
class Host {
    use Greets;
    public function welcome(): string {
        return $this->greet();
    }
}
`
	assert.Empty(t, runCheck(t, UndefinedMethod{}, source, nil))
}

func TestUndefinedMethod_UnknownAncestorSuppresses(t *testing.T) {
	t.Parallel()

	source := `<?php
class Sub extends \Vendor\Base {
    public function go() {
        return $this->mystery();
    }
}
`
	assert.Empty(t, runCheck(t, UndefinedMethod{}, source, nil))
}

func TestUndefinedMethod_MagicCallSuppresses(t *testing.T) {
	t.Parallel()

	source := `<?php
class Proxy {
    public function __call($name, $args) {}
    public function fire() {
        return $this->anything();
    }
}
`
	assert.Empty(t, runCheck(t, UndefinedMethod{}, source, nil))
}

func TestUndefinedMethod_SkipsDynamicAndOtherReceivers(t *testing.T) {
	t.Parallel()

	source := `<?php
class Widget {
    public function render($other) {
        $m = "draw";
        $this->$m();
        $other->missing();
    }
}
`
	assert.Empty(t, runCheck(t, UndefinedMethod{}, source, nil))
}
