// Package log provides a simple, leveled logging interface for the
// concierge coordination engine.
//
// The engine and the handler adapters log through the Logger interface so
// callers can plug in any backend. Two implementations ship with the
// package: DefaultLogger on top of the standard library log package, and
// GologLogger wrapping github.com/kataras/golog.
//
//	logger := log.NewDefaultLogger(log.LevelInfo)
//	logger.Info("run started: %s", query)
//
// Tests typically pass a NoOpLogger to keep output quiet.
package log
