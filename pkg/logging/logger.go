// Package logging provides the process-wide leveled loggers used by the
// API handlers and background workers.
package logging

import (
	"log"
	"os"
)

var (
	infoLogger  *log.Logger
	warnLogger  *log.Logger
	errorLogger *log.Logger
)

// InitLogging initializes the loggers. Logging calls before InitLogging
// are silently dropped, which keeps library code usable from tests.
func InitLogging() {
	flags := log.Ldate | log.Ltime | log.Lshortfile
	infoLogger = log.New(os.Stdout, "INFO: ", flags)
	warnLogger = log.New(os.Stdout, "WARN: ", flags)
	errorLogger = log.New(os.Stderr, "ERROR: ", flags)
}

// Infof logs info level messages
func Infof(format string, v ...interface{}) {
	if infoLogger != nil {
		infoLogger.Printf(format, v...)
	}
}

// Warnf logs warning level messages
func Warnf(format string, v ...interface{}) {
	if warnLogger != nil {
		warnLogger.Printf(format, v...)
	}
}

// Errorf logs error level messages
func Errorf(format string, v ...interface{}) {
	if errorLogger != nil {
		errorLogger.Printf(format, v...)
	}
}
