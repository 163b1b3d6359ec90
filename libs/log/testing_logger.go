package log

import (
	"io"
	"os"
	"sync"
	"testing"
)

var (
	testingLoggerMu sync.Mutex
	testingLogger   Logger
)

// TestingLogger returns a Logger that writes plain text to stdout when tests run
// with -v, and a no-op logger otherwise. The instance is shared across
// callers within a test binary.
func TestingLogger() Logger {
	return TestingLoggerWithOutput(os.Stdout)
}

// TestingLoggerWithOutput is TestingLogger with an explicit sink.
func TestingLoggerWithOutput(w io.Writer) Logger {
	testingLoggerMu.Lock()
	defer testingLoggerMu.Unlock()
	if testingLogger != nil {
		return testingLogger
	}

	if testing.Verbose() {
		l, err := NewDefaultLoggerWithWriter(NewSyncWriter(w), LogFormatPlain, LogLevelDebug)
		if err != nil {
			panic(err)
		}
		testingLogger = l
	} else {
		testingLogger = NewNopLogger()
	}
	return testingLogger
}
