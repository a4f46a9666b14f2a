package checks

import "strings"

// The allowlists below keep the checks quiet about names PHP or a common
// framework provides at runtime. They are matched case-insensitively, the
// way PHP resolves functions and class names.

func makeNameSet(names ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[strings.ToLower(n)] = struct{}{}
	}
	return set
}

func isBuiltinFunction(name string) bool {
	_, ok := builtinFunctions[strings.ToLower(name)]
	return ok
}

func isBuiltinClass(name string) bool {
	_, ok := builtinClasses[strings.ToLower(name)]
	return ok
}

func isBuiltinConstant(name string) bool {
	_, ok := builtinConstants[strings.ToLower(name)]
	return ok
}

// isFrameworkFunction reports whether the name matches a helper commonly
// provided by Laravel, Symfony or WordPress. Those are defined by
// autoloaded code this analysis never sees, so calls to them are not
// reported.
func isFrameworkFunction(name string) bool {
	_, ok := frameworkFunctions[strings.ToLower(name)]
	return ok
}

// isScalarTypeHint reports whether the name is a non-class type usable in
// parameter, return and property positions.
func isScalarTypeHint(name string) bool {
	_, ok := scalarTypeHints[strings.ToLower(name)]
	return ok
}

var scalarTypeHints = makeNameSet(
	"void", "int", "string", "array", "callable", "iterable", "mixed",
	"static", "self", "parent", "null", "true", "false", "never",
	"object", "bool", "float",
)

var builtinFunctions = makeNameSet(
	// String functions
	"strlen", "substr", "strpos", "stripos", "strrpos", "strripos", "str_replace", "str_ireplace",
	"strtolower", "strtoupper", "ucfirst", "lcfirst", "ucwords", "trim", "ltrim", "rtrim",
	"explode", "implode", "join", "sprintf", "printf", "sscanf", "vsprintf", "vprintf",
	"str_pad", "str_repeat", "str_split", "chunk_split", "wordwrap", "nl2br",
	"htmlspecialchars", "htmlentities", "strip_tags", "addslashes", "stripslashes",
	"quotemeta", "ord", "chr", "number_format", "money_format", "parse_str", "http_build_query",
	"preg_match", "preg_match_all", "preg_replace", "preg_split", "preg_grep", "preg_quote",
	"str_contains", "str_starts_with", "str_ends_with",

	// Array functions
	"count", "sizeof", "array_push", "array_pop", "array_shift", "array_unshift",
	"array_merge", "array_merge_recursive", "array_combine", "array_chunk", "array_slice",
	"array_splice", "array_keys", "array_values", "array_flip", "array_reverse",
	"array_search", "array_key_exists", "in_array", "array_unique", "array_diff",
	"array_intersect", "array_map", "array_filter", "array_reduce", "array_walk",
	"array_column", "array_fill", "array_fill_keys", "array_pad", "range",
	"sort", "rsort", "asort", "arsort", "ksort", "krsort", "usort", "uasort", "uksort",
	"shuffle", "array_rand", "array_sum", "array_product", "array_count_values",
	"array_key_first", "array_key_last", "array_is_list",

	// File functions
	"file_get_contents", "file_put_contents", "file", "fopen", "fclose", "fread", "fwrite",
	"fgets", "fgetc", "feof", "fseek", "ftell", "rewind", "flock", "fflush",
	"file_exists", "is_file", "is_dir", "is_readable", "is_writable", "is_executable",
	"mkdir", "rmdir", "unlink", "rename", "copy", "move_uploaded_file",
	"glob", "scandir", "readdir", "opendir", "closedir", "realpath", "dirname", "basename",
	"pathinfo", "filesize", "filemtime", "fileatime", "filectime", "stat",

	// Type functions
	"gettype", "settype", "intval", "floatval", "strval", "boolval",
	"is_null", "is_bool", "is_int", "is_integer", "is_long", "is_float", "is_double",
	"is_string", "is_array", "is_object", "is_callable", "is_resource", "is_numeric",
	"is_scalar", "is_iterable", "is_countable", "isset", "unset", "empty",

	// Class and object functions
	"class_exists", "interface_exists", "trait_exists", "method_exists", "property_exists",
	"get_class", "get_parent_class", "get_called_class", "get_class_methods", "get_class_vars",
	"get_object_vars", "is_a", "is_subclass_of", "instanceof", "spl_autoload_register",
	"spl_object_hash", "spl_object_id",

	// Math functions
	"abs", "ceil", "floor", "round", "max", "min", "pow", "sqrt", "exp", "log", "log10",
	"sin", "cos", "tan", "asin", "acos", "atan", "atan2", "sinh", "cosh", "tanh",
	"deg2rad", "rad2deg", "pi", "fmod", "intdiv", "rand", "mt_rand", "random_int",
	"random_bytes",

	// Date and time functions
	"time", "mktime", "strtotime", "date", "gmdate", "strftime", "localtime", "getdate",
	"checkdate", "date_create", "date_format", "date_modify", "date_diff", "microtime",
	"hrtime",

	// JSON functions
	"json_encode", "json_decode", "json_last_error", "json_last_error_msg",

	// Error handling
	"trigger_error", "user_error", "set_error_handler", "restore_error_handler",
	"set_exception_handler", "restore_exception_handler", "error_reporting",
	"error_log", "error_get_last",

	// Output
	"echo", "print", "print_r", "var_dump", "var_export", "debug_print_backtrace",
	"ob_start", "ob_end_clean", "ob_end_flush", "ob_get_contents", "ob_get_clean",

	// Variable handling
	"compact", "extract", "list", "define", "defined", "constant",

	// Misc
	"call_user_func", "call_user_func_array", "func_get_args", "func_get_arg", "func_num_args",
	"function_exists", "get_defined_functions", "create_function",
	"header", "headers_sent", "setcookie", "setrawcookie",
	"exit", "die", "sleep", "usleep", "flush",
	"phpinfo", "phpversion", "php_uname", "php_sapi_name",
	"serialize", "unserialize",
	"password_hash", "password_verify", "password_needs_rehash",
	"hash", "hash_hmac", "md5", "sha1", "crc32",
	"base64_encode", "base64_decode", "urlencode", "urldecode", "rawurlencode", "rawurldecode",
	"pack", "unpack",
	"assert",
	"debug_backtrace", "get_defined_vars",
	"iterator_to_array", "array_walk_recursive", "str_word_count", "similar_text",
	"levenshtein", "soundex", "metaphone", "uniqid", "getenv", "putenv", "ini_get", "ini_set",
	"memory_get_usage", "memory_get_peak_usage", "gc_collect_cycles",
	"filter_var", "filter_input", "ctype_digit", "ctype_alpha", "ctype_alnum",
	"mb_strlen", "mb_substr", "mb_strtolower", "mb_strtoupper", "mb_strpos",
	"array_map_recursive", "version_compare", "get_include_path", "set_include_path",
	"parse_url", "parse_ini_file", "fputcsv", "fgetcsv", "tempnam", "sys_get_temp_dir",
	"escapeshellarg", "escapeshellcmd", "exec", "shell_exec", "proc_open", "popen", "pclose",
)

var builtinClasses = makeNameSet(
	// SPL exceptions
	"stdClass", "Exception", "Error", "TypeError", "ArgumentCountError", "ValueError",
	"RuntimeException", "LogicException", "InvalidArgumentException", "OutOfBoundsException",
	"OutOfRangeException", "OverflowException", "UnderflowException", "UnexpectedValueException",
	"DomainException", "RangeException", "LengthException", "BadMethodCallException",
	"BadFunctionCallException", "ErrorException", "DivisionByZeroError", "ArithmeticError",
	"JsonException",

	// Iterators
	"Iterator", "IteratorAggregate", "ArrayIterator", "RecursiveIterator",
	"RecursiveArrayIterator", "DirectoryIterator", "RecursiveDirectoryIterator",
	"FilesystemIterator", "GlobIterator", "RegexIterator", "FilterIterator",
	"CallbackFilterIterator", "LimitIterator", "InfiniteIterator", "EmptyIterator",
	"AppendIterator", "MultipleIterator", "NoRewindIterator", "CachingIterator",
	"RecursiveIteratorIterator", "IteratorIterator",

	// Data structures
	"ArrayObject", "SplFixedArray", "SplDoublyLinkedList", "SplStack", "SplQueue",
	"SplHeap", "SplMinHeap", "SplMaxHeap", "SplPriorityQueue", "SplObjectStorage",

	// File handling
	"SplFileInfo", "SplFileObject", "SplTempFileObject",

	// Date and time
	"DateTime", "DateTimeImmutable", "DateTimeZone", "DateInterval", "DatePeriod",
	"DateTimeInterface", "DateError", "DateException",

	// Reflection
	"ReflectionClass", "ReflectionMethod", "ReflectionProperty", "ReflectionFunction",
	"ReflectionParameter", "ReflectionType", "ReflectionNamedType", "ReflectionUnionType",
	"ReflectionAttribute", "ReflectionEnum", "ReflectionEnumUnitCase", "ReflectionEnumBackedCase",
	"ReflectionException", "ReflectionObject", "ReflectionExtension",

	// Generators
	"Generator", "ClosedGeneratorException",

	// Closures
	"Closure",

	// Interfaces
	"Traversable", "Countable", "ArrayAccess", "Serializable", "JsonSerializable",
	"Stringable", "Throwable",

	// Attributes
	"Attribute", "ReturnTypeWillChange", "AllowDynamicProperties", "SensitiveParameter",
	"Override", "Deprecated",

	// Weak references
	"WeakReference", "WeakMap",

	// Fibers
	"Fiber", "FiberError",

	// Enums
	"UnitEnum", "BackedEnum",

	// Randomness
	`Random\Randomizer`, `Random\Engine`, `Random\Engine\Mt19937`,
	`Random\Engine\PcgOneseq128XslRr64`, `Random\Engine\Xoshiro256StarStar`,
	`Random\Engine\Secure`,

	// Commonly available extension classes
	"PDO", "PDOStatement", "PDOException", "mysqli", "mysqli_result", "mysqli_stmt",
	"CurlHandle", "SimpleXMLElement", "DOMDocument", "DOMElement", "DOMNode", "DOMXPath",
	"XMLReader", "XMLWriter", "ZipArchive", "finfo", "Redis", "Memcached",
	"NumberFormatter", "IntlDateFormatter", "Collator", "Locale", "Transliterator",
)

var frameworkFunctions = makeNameSet(
	// Laravel helpers
	"app", "config", "env", "route", "url", "view", "redirect", "response",
	"request", "session", "trans", "lang", "__", "old", "csrf_field", "csrf_token",
	"method_field", "abort", "auth", "back", "bcrypt", "cache", "collect",
	"cookie", "dispatch", "event", "factory", "info", "logger", "now",
	"policy", "public_path", "storage_path", "resource_path", "base_path",
	"database_path", "app_path", "config_path", "report", "rescue", "resolve",
	"validator", "with", "dd", "dump", "data_get", "data_set", "head", "last",
	"value", "tap", "retry", "throw_if", "throw_unless", "optional",

	// WordPress helpers
	"add_action", "add_filter", "apply_filters", "do_action", "get_option",
	"update_option", "delete_option", "wp_enqueue_script", "wp_enqueue_style",
	"get_post", "get_posts", "the_content", "the_title", "the_permalink",
	"esc_html", "esc_attr", "esc_url", "wp_nonce_field", "check_admin_referer",
	"_e", "_x", "_n", "get_template_part",
)

var builtinConstants = makeNameSet(
	// Core
	"PHP_VERSION", "PHP_MAJOR_VERSION", "PHP_MINOR_VERSION", "PHP_RELEASE_VERSION",
	"PHP_VERSION_ID", "PHP_EXTRA_VERSION", "PHP_OS", "PHP_OS_FAMILY", "PHP_SAPI",
	"PHP_EOL", "PHP_INT_MAX", "PHP_INT_MIN", "PHP_INT_SIZE", "PHP_FLOAT_DIG",
	"PHP_FLOAT_EPSILON", "PHP_FLOAT_MIN", "PHP_FLOAT_MAX", "PHP_MAXPATHLEN",
	"PHP_BINARY", "PHP_BINDIR", "PHP_CONFIG_FILE_PATH", "PHP_DATADIR",
	"PHP_EXTENSION_DIR", "PHP_LIBDIR", "PHP_LOCALSTATEDIR", "PHP_PREFIX",
	"PHP_SYSCONFDIR", "DIRECTORY_SEPARATOR", "PATH_SEPARATOR",
	"DEFAULT_INCLUDE_PATH", "PEAR_INSTALL_DIR", "PEAR_EXTENSION_DIR",
	"TRUE", "FALSE", "NULL",

	// Error reporting
	"E_ERROR", "E_WARNING", "E_PARSE", "E_NOTICE", "E_CORE_ERROR", "E_CORE_WARNING",
	"E_COMPILE_ERROR", "E_COMPILE_WARNING", "E_USER_ERROR", "E_USER_WARNING",
	"E_USER_NOTICE", "E_STRICT", "E_RECOVERABLE_ERROR", "E_DEPRECATED",
	"E_USER_DEPRECATED", "E_ALL",

	// Magic constants
	"__FILE__", "__LINE__", "__DIR__", "__FUNCTION__", "__CLASS__", "__METHOD__",
	"__NAMESPACE__", "__TRAIT__",

	// Standard streams
	"STDIN", "STDOUT", "STDERR",

	// File handling
	"LOCK_SH", "LOCK_EX", "LOCK_UN", "LOCK_NB",
	"FILE_USE_INCLUDE_PATH", "FILE_IGNORE_NEW_LINES", "FILE_SKIP_EMPTY_LINES",
	"FILE_APPEND", "FILE_NO_DEFAULT_CONTEXT",
	"SEEK_SET", "SEEK_CUR", "SEEK_END",
	"GLOB_BRACE", "GLOB_ONLYDIR", "GLOB_MARK", "GLOB_NOSORT", "GLOB_NOCHECK",
	"GLOB_NOESCAPE", "GLOB_ERR",
	"PATHINFO_DIRNAME", "PATHINFO_BASENAME", "PATHINFO_EXTENSION", "PATHINFO_FILENAME",
	"SCANDIR_SORT_ASCENDING", "SCANDIR_SORT_DESCENDING", "SCANDIR_SORT_NONE",

	// JSON
	"JSON_ERROR_NONE", "JSON_ERROR_DEPTH", "JSON_ERROR_SYNTAX", "JSON_ERROR_UTF8",
	"JSON_HEX_TAG", "JSON_HEX_AMP", "JSON_HEX_APOS", "JSON_HEX_QUOT",
	"JSON_FORCE_OBJECT", "JSON_NUMERIC_CHECK", "JSON_BIGINT_AS_STRING",
	"JSON_PRETTY_PRINT", "JSON_UNESCAPED_SLASHES", "JSON_UNESCAPED_UNICODE",
	"JSON_PARTIAL_OUTPUT_ON_ERROR", "JSON_INVALID_UTF8_IGNORE",
	"JSON_INVALID_UTF8_SUBSTITUTE", "JSON_OBJECT_AS_ARRAY", "JSON_THROW_ON_ERROR",
	"JSON_PRESERVE_ZERO_FRACTION",

	// Filter
	"FILTER_VALIDATE_INT", "FILTER_VALIDATE_FLOAT", "FILTER_VALIDATE_BOOL",
	"FILTER_VALIDATE_BOOLEAN", "FILTER_VALIDATE_EMAIL", "FILTER_VALIDATE_URL",
	"FILTER_VALIDATE_IP", "FILTER_VALIDATE_REGEXP", "FILTER_VALIDATE_DOMAIN",
	"FILTER_VALIDATE_MAC", "FILTER_SANITIZE_EMAIL", "FILTER_SANITIZE_URL",
	"FILTER_SANITIZE_NUMBER_INT", "FILTER_SANITIZE_NUMBER_FLOAT",
	"FILTER_SANITIZE_SPECIAL_CHARS", "FILTER_SANITIZE_FULL_SPECIAL_CHARS",
	"FILTER_SANITIZE_ADD_SLASHES", "FILTER_UNSAFE_RAW", "FILTER_DEFAULT",
	"FILTER_FLAG_IPV4", "FILTER_FLAG_IPV6", "FILTER_FLAG_NO_PRIV_RANGE",
	"FILTER_FLAG_NO_RES_RANGE", "FILTER_FLAG_PATH_REQUIRED", "FILTER_FLAG_QUERY_REQUIRED",
	"FILTER_NULL_ON_FAILURE", "FILTER_REQUIRE_SCALAR", "FILTER_REQUIRE_ARRAY",
	"FILTER_FORCE_ARRAY",
	"INPUT_GET", "INPUT_POST", "INPUT_COOKIE", "INPUT_SERVER", "INPUT_ENV",

	// String handling
	"STR_PAD_RIGHT", "STR_PAD_LEFT", "STR_PAD_BOTH",
	"CRYPT_SALT_LENGTH", "CRYPT_STD_DES", "CRYPT_EXT_DES", "CRYPT_MD5", "CRYPT_BLOWFISH",
	"CHAR_MAX",
	"LC_ALL", "LC_COLLATE", "LC_CTYPE", "LC_MONETARY", "LC_NUMERIC", "LC_TIME", "LC_MESSAGES",
	"HTML_SPECIALCHARS", "HTML_ENTITIES",
	"ENT_QUOTES", "ENT_COMPAT", "ENT_NOQUOTES", "ENT_IGNORE", "ENT_SUBSTITUTE",
	"ENT_HTML401", "ENT_XML1", "ENT_XHTML", "ENT_HTML5",

	// Sorting and array handling
	"SORT_REGULAR", "SORT_NUMERIC", "SORT_STRING", "SORT_LOCALE_STRING",
	"SORT_NATURAL", "SORT_FLAG_CASE", "SORT_ASC", "SORT_DESC",
	"CASE_LOWER", "CASE_UPPER",
	"COUNT_NORMAL", "COUNT_RECURSIVE",
	"ARRAY_FILTER_USE_KEY", "ARRAY_FILTER_USE_BOTH",
	"EXTR_OVERWRITE", "EXTR_SKIP", "EXTR_PREFIX_SAME", "EXTR_PREFIX_ALL",
	"EXTR_PREFIX_INVALID", "EXTR_PREFIX_IF_EXISTS", "EXTR_IF_EXISTS", "EXTR_REFS",

	// PCRE
	"PREG_PATTERN_ORDER", "PREG_SET_ORDER", "PREG_OFFSET_CAPTURE",
	"PREG_UNMATCHED_AS_NULL", "PREG_SPLIT_NO_EMPTY", "PREG_SPLIT_DELIM_CAPTURE",
	"PREG_SPLIT_OFFSET_CAPTURE", "PREG_GREP_INVERT",

	// cURL
	"CURLOPT_URL", "CURLOPT_RETURNTRANSFER", "CURLOPT_POST", "CURLOPT_POSTFIELDS",
	"CURLOPT_HTTPHEADER", "CURLOPT_HEADER", "CURLOPT_FOLLOWLOCATION",
	"CURLOPT_TIMEOUT", "CURLOPT_CONNECTTIMEOUT", "CURLOPT_USERAGENT",
	"CURLOPT_SSL_VERIFYPEER", "CURLOPT_SSL_VERIFYHOST", "CURLOPT_CUSTOMREQUEST",
	"CURLOPT_USERPWD", "CURLOPT_COOKIE", "CURLOPT_COOKIEJAR", "CURLOPT_COOKIEFILE",
	"CURLINFO_HTTP_CODE", "CURLINFO_TOTAL_TIME", "CURLE_OK",

	// Date and time
	"DATE_ATOM", "DATE_COOKIE", "DATE_ISO8601", "DATE_RFC822", "DATE_RFC850",
	"DATE_RFC1036", "DATE_RFC1123", "DATE_RFC2822", "DATE_RFC3339",
	"DATE_RFC3339_EXTENDED", "DATE_RFC7231", "DATE_RSS", "DATE_W3C",
	"SUNFUNCS_RET_TIMESTAMP", "SUNFUNCS_RET_STRING", "SUNFUNCS_RET_DOUBLE",

	// Math
	"M_PI", "M_E", "M_LOG2E", "M_LOG10E", "M_LN2", "M_LN10", "M_PI_2", "M_PI_4",
	"M_1_PI", "M_2_PI", "M_SQRTPI", "M_2_SQRTPI", "M_SQRT2", "M_SQRT3", "M_SQRT1_2",
	"M_EULER", "NAN", "INF",
	"PHP_ROUND_HALF_UP", "PHP_ROUND_HALF_DOWN", "PHP_ROUND_HALF_EVEN", "PHP_ROUND_HALF_ODD",

	// Process control signals
	"SIGHUP", "SIGINT", "SIGQUIT", "SIGKILL", "SIGUSR1", "SIGUSR2", "SIGALRM",
	"SIGTERM", "SIGCHLD", "SIGSTOP", "SIGCONT",

	// LibXML
	"LIBXML_NOENT", "LIBXML_NOERROR", "LIBXML_NOWARNING", "LIBXML_NOCDATA",
	"LIBXML_NOBLANKS", "LIBXML_HTML_NOIMPLIED", "LIBXML_HTML_NODEFDTD",

	// MySQLi
	"MYSQLI_ASSOC", "MYSQLI_NUM", "MYSQLI_BOTH", "MYSQLI_REPORT_ERROR",
	"MYSQLI_REPORT_STRICT", "MYSQLI_REPORT_ALL", "MYSQLI_REPORT_OFF",
)
