package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/btcsuite/btclog"
	"github.com/jrick/logrotate/rotator"

	"github.com/atomicswapd/swapd/swap/chainntfs"
	"github.com/atomicswapd/swapd/swap/chainwallet/btcwallet"
	"github.com/atomicswapd/swapd/swap/chainwallet/ethwallet"
	"github.com/atomicswapd/swapd/swap/negotiate"
	"github.com/atomicswapd/swapd/swap/swapdb"
	"github.com/atomicswapd/swapd/swap/swapexec"
)

// logWriter multiplexes log output to stdout and, once initLogRotator
// has run, to the rotating log file on disk.
type logWriter struct {
	rotatorPipe io.Writer
}

func (w *logWriter) Write(p []byte) (int, error) {
	os.Stdout.Write(p)
	if w.rotatorPipe != nil {
		w.rotatorPipe.Write(p)
	}
	return len(p), nil
}

var (
	backendWriter = &logWriter{}
	backendLog    = btclog.NewBackend(backendWriter)
	logRotator    *rotator.Rotator

	swpdLog = backendLog.Logger("SWPD")
	execLog = backendLog.Logger("EXEC")
	storLog = backendLog.Logger("STOR")
	btcwLog = backendLog.Logger("BTCW")
	ethwLog = backendLog.Logger("ETHW")
	ntfsLog = backendLog.Logger("NTFS")
	negoLog = backendLog.Logger("NEGO")
	hlthLog = backendLog.Logger("HLTH")
)

// subsystemLoggers maps each subsystem tag to its logger, letting
// setLogLevels dynamically adjust every package's verbosity together.
var subsystemLoggers = map[string]btclog.Logger{
	"SWPD": swpdLog,
	"EXEC": execLog,
	"STOR": storLog,
	"BTCW": btcwLog,
	"ETHW": ethwLog,
	"NTFS": ntfsLog,
	"NEGO": negoLog,
	"HLTH": hlthLog,
}

// useLoggers wires every package's logger to its subsystem tag. Called
// once during daemon startup, before anything in those packages runs.
func useLoggers() {
	swapexec.UseLogger(execLog)
	swapdb.UseLogger(storLog)
	btcwallet.UseLogger(btcwLog)
	ethwallet.UseLogger(ethwLog)
	chainntfs.UseLogger(ntfsLog)
	negotiate.UseLogger(negoLog)
}

// initLogRotator initializes the log rotator to write roll files
// alongside logFile. Logging to stdout works before this is called;
// file output only begins afterward.
func initLogRotator(logFile string, maxFileSizeMB, maxFiles int) error {
	logDir, _ := filepath.Split(logFile)
	if logDir != "" {
		if err := os.MkdirAll(logDir, 0700); err != nil {
			return fmt.Errorf("create log directory: %w", err)
		}
	}

	r, err := rotator.New(logFile, int64(maxFileSizeMB*1024), false, maxFiles)
	if err != nil {
		return fmt.Errorf("create log rotator: %w", err)
	}

	pr, pw := io.Pipe()
	go r.Run(pr)

	backendWriter.rotatorPipe = pw
	logRotator = r
	return nil
}

// setLogLevels sets every subsystem logger to level, ignoring an invalid
// level string in favor of leaving the existing level untouched.
func setLogLevels(level string) {
	parsed, ok := btclog.LevelFromString(level)
	if !ok {
		return
	}
	for _, logger := range subsystemLoggers {
		logger.SetLevel(parsed)
	}
}
