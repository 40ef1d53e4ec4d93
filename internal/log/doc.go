// Package log provides logging with automatic redaction of site credentials,
// built on top of the standard slog package.
//
// The .empresascan configuration file can carry session cookies and custom
// headers for directories that gate result pages behind a login. Those
// values travel through the client and the pipeline, and in verbose mode
// they would otherwise end up in debug output. The SecureHandler masks them
// before they reach the underlying handler, so logs stay safe to share.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, true) // verbose=true
//
//	logger.Debug("request prepared",
//	    "cookie", "session=abc123",  // masked
//	    "url", "https://www.einforma.com/...",
//	)
//
//	slog.SetDefault(logger)
package log
