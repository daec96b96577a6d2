// Package logger provides structured logging for igunfollowers.
//
// It wraps zerolog behind a small Logger interface. Console output goes to
// stderr, either as colored human-readable lines (format "text") or as JSON
// lines (format "json"). When a log file is configured every entry is also
// appended there as JSON.
//
// Basic usage:
//
//	cfg := &config.LoggingConfig{Level: "debug", Format: "text"}
//	if err := logger.Initialize(cfg); err != nil {
//	    return err
//	}
//	logger.WithField("username", "alice").Info("Session loaded")
//
// Components take a Logger in their constructors. Tests pass NewTestLogger
// to assert on what was logged, or NewNopLogger to discard it.
package logger
