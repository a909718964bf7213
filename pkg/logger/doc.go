// Package logger provides structured logging for the archiver, built on
// zerolog. It exposes a small Logger interface with leveled methods and
// field/error context, a global instance initialized from configuration,
// and capture/no-op implementations for tests.
package logger
