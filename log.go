package colorizer

import "log"

// Logf is the package diagnostic logger. It defaults to log.Printf and can be
// replaced with SetLogger.
var Logf func(format string, v ...any) = log.Printf

// SetLogger replaces Logf. A nil f mutes logging.
func SetLogger(f func(format string, v ...any)) {
	if f == nil {
		Logf = func(string, ...any) {}
		return
	}
	Logf = f
}
