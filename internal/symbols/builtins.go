package symbols

// builtinClassHierarchy lists built-in exception types with their parent
// and interface links so hierarchy queries work across user classes that
// extend them. Member sets stay uncollected: the runtime API surface is
// not tracked here.
var builtinClassHierarchy = []struct {
	name       string
	kind       ClassKind
	parent     string
	interfaces []string
}{
	{"stdClass", KindClass, "", nil},
	{"Exception", KindClass, "", []string{"Throwable"}},
	{"Error", KindClass, "", []string{"Throwable"}},
	{"TypeError", KindClass, "Error", nil},
	{"ArgumentCountError", KindClass, "TypeError", nil},
	{"ValueError", KindClass, "Error", nil},
	{"RuntimeException", KindClass, "Exception", nil},
	{"LogicException", KindClass, "Exception", nil},
	{"InvalidArgumentException", KindClass, "LogicException", nil},
	{"OutOfBoundsException", KindClass, "RuntimeException", nil},
	{"OutOfRangeException", KindClass, "RuntimeException", nil},
	{"UnexpectedValueException", KindClass, "RuntimeException", nil},
	{"DomainException", KindClass, "LogicException", nil},
	{"LengthException", KindClass, "LogicException", nil},
	{"RangeException", KindClass, "RuntimeException", nil},
	{"OverflowException", KindClass, "RuntimeException", nil},
	{"UnderflowException", KindClass, "RuntimeException", nil},
	{"BadFunctionCallException", KindClass, "LogicException", nil},
	{"BadMethodCallException", KindClass, "BadFunctionCallException", nil},
}

var builtinClasses = []struct {
	name string
	kind ClassKind
}{
	{"DateTime", KindClass},
	{"DateTimeImmutable", KindClass},
	{"DateTimeZone", KindClass},
	{"DateInterval", KindClass},
	{"DatePeriod", KindClass},
	{"DateTimeInterface", KindInterface},
	{"ArrayObject", KindClass},
	{"ArrayIterator", KindClass},
	{"Iterator", KindInterface},
	{"IteratorAggregate", KindInterface},
	{"Traversable", KindInterface},
	{"Countable", KindInterface},
	{"ArrayAccess", KindInterface},
	{"Serializable", KindInterface},
	{"JsonSerializable", KindInterface},
	{"Stringable", KindInterface},
	{"Throwable", KindInterface},
	{"Closure", KindClass},
	{"Generator", KindClass},
	{"ReflectionClass", KindClass},
	{"ReflectionMethod", KindClass},
	{"ReflectionProperty", KindClass},
	{"ReflectionFunction", KindClass},
	{"PDO", KindClass},
	{"PDOStatement", KindClass},
	{"PDOException", KindClass},
	{"SplFileInfo", KindClass},
	{"SplFileObject", KindClass},
	{"SplObjectStorage", KindClass},
	{"WeakReference", KindClass},
	{"WeakMap", KindClass},
	{"Fiber", KindClass},
	{"UnitEnum", KindInterface},
	{"BackedEnum", KindInterface},
	{"DOMDocument", KindClass},
	{"DOMElement", KindClass},
	{"DOMNode", KindClass},
	{"SimpleXMLElement", KindClass},
}

var builtinFunctions = []string{
	"strlen", "substr", "strpos", "str_replace", "explode", "implode",
	"array_map", "array_filter", "array_reduce", "array_merge", "array_keys", "array_values",
	"count", "sizeof", "in_array", "array_search", "array_key_exists",
	"is_null", "is_array", "is_string", "is_int", "is_float", "is_bool", "is_object",
	"print_r", "var_dump", "var_export",
	"json_encode", "json_decode",
	"file_get_contents", "file_put_contents", "file_exists", "is_file", "is_dir",
	"preg_match", "preg_match_all", "preg_replace",
	"sprintf", "printf", "sscanf",
	"trim", "ltrim", "rtrim", "strtolower", "strtoupper",
	"abs", "ceil", "floor", "round", "max", "min",
	"date", "time", "strtotime", "mktime",
	"class_exists", "method_exists", "property_exists", "function_exists",
	"get_class", "get_parent_class", "is_a", "is_subclass_of",
	"call_user_func", "call_user_func_array",
}

var builtinConstants = []string{
	"PHP_VERSION", "PHP_INT_MAX", "PHP_INT_MIN", "PHP_FLOAT_EPSILON",
	"PHP_EOL", "DIRECTORY_SEPARATOR", "PATH_SEPARATOR",
	"NULL", "TRUE", "FALSE",
	"E_ALL", "E_ERROR", "E_WARNING", "E_NOTICE", "E_DEPRECATED", "E_STRICT",
	"JSON_PRETTY_PRINT", "JSON_UNESCAPED_SLASHES", "JSON_UNESCAPED_UNICODE",
	"JSON_THROW_ON_ERROR",
	"SORT_REGULAR", "SORT_NUMERIC", "SORT_STRING", "SORT_FLAG_CASE",
	"COUNT_RECURSIVE", "ARRAY_FILTER_USE_KEY", "ARRAY_FILTER_USE_BOTH",
	"M_PI", "M_E", "INF", "NAN",
	"PREG_PATTERN_ORDER", "PREG_SET_ORDER", "PREG_SPLIT_NO_EMPTY",
	"ENT_QUOTES", "ENT_HTML5",
	"SEEK_SET", "SEEK_CUR", "SEEK_END",
	"LOCK_SH", "LOCK_EX", "LOCK_UN",
	"STR_PAD_RIGHT", "STR_PAD_LEFT", "STR_PAD_BOTH",
}

// RegisterBuiltins adds well-known PHP runtime symbols to the table so
// references to them resolve without a project declaration. Entries carry
// no member or parameter detail.
func RegisterBuiltins(t *Table) {
	for _, b := range builtinClassHierarchy {
		info := ClassFromFQN(b.name)
		info.Kind = b.kind
		info.Parent = b.parent
		info.Interfaces = append(info.Interfaces, b.interfaces...)
		t.RegisterClass(info)
	}
	for _, b := range builtinClasses {
		info := ClassFromFQN(b.name)
		info.Kind = b.kind
		t.RegisterClass(info)
	}
	for _, name := range builtinFunctions {
		t.RegisterFunction(FunctionFromFQN(name))
	}
	for _, name := range builtinConstants {
		t.RegisterConstant(name)
	}
}
