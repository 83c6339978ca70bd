package policy

import "errors"

// Sentinel errors for policy loading. Use errors.Is to check for these.
var (
	// ErrConfigNotFound indicates a config file does not exist at the expected path.
	ErrConfigNotFound = errors.New("config file not found")

	// ErrConfigRead indicates an I/O error reading an existing config file.
	ErrConfigRead = errors.New("failed to read config file")

	// ErrConfigParse indicates a YAML syntax error, including unknown fields:
	// config files are decoded in strict mode, so a typo'd key fails loudly
	// instead of being silently ignored.
	ErrConfigParse = errors.New("config parse error")

	// ErrInvalidConfig indicates the YAML parsed but a value failed validation.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidPattern indicates a pattern string could not be compiled.
	ErrInvalidPattern = errors.New("invalid pattern")
)
