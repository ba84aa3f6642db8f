// Package logging configures slog for notelink.
//
// Without --debug, records at the configured level go to stderr as text.
// With --debug, JSON records at debug level are also written to a
// size-rotated file under ~/.notelink/logs/.
package logging
