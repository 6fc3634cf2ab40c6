// Package log builds slog loggers that mask sensitive values.
//
// Audits can be configured with per-site cookies and request headers, and
// crawled URLs often carry session tokens in their query strings. The
// SecureHandler keeps those out of log output:
//   - keys such as cookie, authorization or token are masked outright
//   - bearer, basic and JWT values are masked whatever their key
//   - URL values keep their path but lose passwords and token parameters
//
// Usage:
//
//	logger := log.New(os.Stderr, verbose, false)
//	logger.Info("fetching", "url", "https://example.com/?token=abc") // token=***REDACTED***
//	slog.SetDefault(logger)
package log
