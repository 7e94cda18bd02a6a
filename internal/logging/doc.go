// Package logging configures slog for pantry.
//
// Logs are JSON lines written to a size-rotated file under ~/.pantry/logs/,
// optionally tee'd to stderr. The MCP server logs to the file only, since
// stdout carries the protocol stream. The Viewer reads those files back for
// `pantry logs`.
package logging
