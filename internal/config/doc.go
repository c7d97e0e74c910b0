// Package config handles configuration loading, parsing, and validation
// from defaults, an optional config file, a .env file and environment
// variables. It also exposes the runtime-mutable AI settings that the
// generation client re-reads every time it is constructed.
package config
