package swapexec

import "github.com/btcsuite/btclog"

// log is the package-wide logger, set via UseLogger by the daemon's
// logging setup. It does nothing until then.
var log btclog.Logger

func init() {
	UseLogger(btclog.Disabled)
}

// UseLogger sets the logger used by this package. Called from the
// daemon's log.go alongside every other subsystem logger.
func UseLogger(logger btclog.Logger) {
	log = logger
}
