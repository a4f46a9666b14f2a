package issue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuilders(t *testing.T) {
	t.Parallel()

	i := NewError("class.notFound", "Class Foo not found.", "src/a.php", 3, 7).
		WithIdentifier("class.notFound").
		WithTip("Did you forget a use statement?")

	assert.Equal(t, SeverityError, i.Severity)
	assert.Equal(t, "class.notFound", i.CheckID)
	assert.Equal(t, "class.notFound", i.Identifier)
	assert.Equal(t, "Class Foo not found.", i.Message)
	assert.Equal(t, 3, i.Line)
	assert.Equal(t, 7, i.Column)
	assert.NotEmpty(t, i.Tip)

	w := NewWarning("deadCode", "Unreachable statement.", "src/a.php", 1, 1)
	assert.Equal(t, SeverityWarning, w.Severity)
}

func TestCollectionCounts(t *testing.T) {
	t.Parallel()

	c := NewCollection()
	c.Add(NewError("a", "m", "f.php", 1, 1))
	c.Add(NewWarning("b", "m", "f.php", 2, 1))
	c.Extend([]Issue{NewError("c", "m", "f.php", 3, 1)})

	assert.Equal(t, 3, c.Len())
	assert.Equal(t, 2, c.ErrorCount())
	assert.Equal(t, 1, c.WarningCount())
}

func TestSortOrdersByFileLineColumn(t *testing.T) {
	t.Parallel()

	c := NewCollection()
	c.Add(NewError("x", "m", "b.php", 1, 5))
	c.Add(NewError("x", "m", "a.php", 9, 1))
	c.Add(NewError("x", "m", "b.php", 1, 2))
	c.Add(NewError("x", "m", "a.php", 2, 8))
	c.Sort()

	got := c.Issues()
	assert.Equal(t, "a.php", got[0].File)
	assert.Equal(t, 2, got[0].Line)
	assert.Equal(t, "a.php", got[1].File)
	assert.Equal(t, 9, got[1].Line)
	assert.Equal(t, "b.php", got[2].File)
	assert.Equal(t, 2, got[2].Column)
	assert.Equal(t, "b.php", got[3].File)
	assert.Equal(t, 5, got[3].Column)
}
