// Package logging provides structured logging for hatch.
//
// This package wraps a zap logger with a few convenience functions. Logging
// is silent unless a level is configured, because the install dialog owns
// the terminal while it runs: log lines would corrupt the rendered UI.
//
// # Configuration
//
// Initialize logging once at startup, pointing it at a file:
//
//	if err := logging.Initialize("debug", "/home/me/.hatch/hatch.log"); err != nil {
//	    return err
//	}
//	defer logging.Sync()
//
// When level is empty the HATCH_LOG_LEVEL environment variable is consulted.
// When both are empty a no-op logger is installed.
//
// # Dialog Logging
//
// Wizard transitions and host calls are logged with structured fields:
//
//	logging.LogHostCall("getInstallInfo", url, err)
//	logging.LogTransition("advance", page, url)
package logging
