package checks

import (
	"fmt"
	"strconv"
)

// Level is the analysis strictness, 0 through 9. Higher levels run every
// check of the lower ones plus their own.
type Level int

// MaxLevel is the highest level and what "max" parses to.
const MaxLevel Level = 9

// ParseLevel converts a config or flag value to a Level. Accepted forms
// are the digits 0-9 and the word "max".
func ParseLevel(s string) (Level, error) {
	if s == "max" {
		return MaxLevel, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || int(MaxLevel) < n {
		return 0, fmt.Errorf("invalid level %q: want 0-%d or \"max\"", s, MaxLevel)
	}
	return Level(n), nil
}

func (l Level) String() string {
	return strconv.Itoa(int(l))
}

// Description summarizes what the level adds over the previous one.
func (l Level) Description() string {
	switch {
	case l <= 0:
		return "basic checks: unknown functions, classes, constants, static calls and missing arguments"
	case l == 1:
		return "undefined and possibly undefined variables"
	case l == 2:
		return "unknown methods on $this and calls with too many arguments"
	default:
		return "no additional checks yet"
	}
}
