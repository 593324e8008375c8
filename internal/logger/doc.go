// Package logger wraps zap and offers:
//   - a global sugared logger with a console encoder,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level parsing and an atomic level shared by every logger,
//   - convenience functions (Infof, ErrorKV, etc.).
//
// The packager passes a context through every step and extracts the logger
// from it, so a named logger set once in Run tags every message.
package logger
