// Package logger provides structured logging for kagglefetch on top of zerolog.
//
// The Logger interface hides zerolog behind field-oriented helpers so that
// packages can be tested with NewNopLogger or NewTestLogger. A process-wide
// logger is installed with Initialize and retrieved with GetLogger.
//
// Console output goes to stderr so that listings printed on stdout stay
// machine-readable. When LoggingConfig.File is set, JSON lines are appended to
// that file as well.
//
// Usage:
//
//	if err := logger.Initialize(&cfg.Logging); err != nil {
//	    return err
//	}
//	logger.WithField("competition", "titanic").Info("Download started")
package logger
