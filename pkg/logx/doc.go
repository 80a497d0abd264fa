// Package logx is a thin structured-logging layer over zerolog with three
// sinks behind one Logger: a human console (short timestamps, file:line
// caller), a JSON log file, and an optional Telegram ops channel that is
// level-gated and rate limited. Sinks are swappable at runtime through
// Service.Apply, which is how config reloads retune logging.
package logx
