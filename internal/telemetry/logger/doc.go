// Package logger configures structured logging.
//
// It builds log/slog handlers with a process-wide dynamic level and a
// ReplaceAttr hook that masks credentials and applicant PII. Request
// scoped loggers travel through context.Context.
package logger
