// Package logx provides a small structured-logging facade over zerolog.
//
// Components receive a Logger value; the Service owns the sinks and can
// re-apply configuration (level, console, file) at runtime without any
// component holding a stale logger.
package logx
