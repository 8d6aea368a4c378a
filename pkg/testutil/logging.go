package testutil

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Tests run with everything at trace level so failures carry full
// context, but the output only shows up under go test -v.
func init() {
	logrus.SetLevel(logrus.TraceLevel)

	for _, arg := range os.Args {
		if arg == "-test.v=true" {
			return
		}
	}
	logrus.StandardLogger().Out = io.Discard
}

// DisableLogging silences the standard logger until reset is called.
func DisableLogging() (reset func()) {
	original := logrus.StandardLogger().Out
	logrus.StandardLogger().Out = io.Discard
	return func() {
		logrus.StandardLogger().Out = original
	}
}
