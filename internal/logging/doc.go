// Package logging provides structured logging utilities for cloudpilot.
//
// It centralizes slog attribute construction so the provider, registry, and
// server layers log with consistent key names, and offers sanitization
// helpers that keep cluster API endpoints (IP addresses) out of log output.
package logging
