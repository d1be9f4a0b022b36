// Package logging builds the process-wide structured logger.
//
// Every component receives a narrowed zerolog.Logger via .With() rather
// than reaching for a package-level global, following the dependency
// layering the rest of this repo uses.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// New builds a zerolog.Logger writing to w at the given level.
// level accepts the usual zerolog names (debug, info, warn, error); an
// unrecognised or empty value defaults to info.
func New(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// Default builds the assistant's default process logger, writing
// human-readable output to stderr (stdout is reserved for stdio-transport
// protocols such as MCP).
func Default(level string) zerolog.Logger {
	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	return New(console, level)
}
