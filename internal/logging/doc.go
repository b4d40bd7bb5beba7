// Package logging wraps log/slog with the attribute helpers and logger
// construction shared by the engine, the admin server and the CLI.
package logging
