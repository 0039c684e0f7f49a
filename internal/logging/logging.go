package logging

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
)

// All of these vars will be assigned automatically, do not modify!
var (
	// "✓" in green
	SuccessSign = color.GreenString("✓")
	// "i" in yellow
	InfoSign = color.YellowString("i")
	// "x" in red
	ErrorSign = color.RedString("x")
	// "!" in magenta
	WarnSign = color.MagentaString("!")
	// "d" in cyan
	DebugSign = color.CyanString("d")

	// # NOTE: Do not modify manually!
	logDir      = ""
	currentDate = time.Now().Local()
	// y_m_d - does not display time
	formatDate = fmt.Sprintf("%d_%d_%d", currentDate.Year(), currentDate.Month(), currentDate.Day())

	// # NOTE: Do not modify manually!
	openLogFiles []*os.File
	filesMu      sync.Mutex

	// Toggled by config reloads while handlers are logging.
	debugEnabled atomic.Bool

	// Logger used to write to app.log file.
	// Discards until CreateFileLoggers was called.
	appLogger = log.New(io.Discard, "", log.LstdFlags)
	// Logger used to write to error.log file.
	errorLogger = log.New(io.Discard, "", log.LstdFlags)

	// Logger used to write to stdout.
	consoleInfoLogger = log.New(os.Stdout, "", log.LstdFlags)
	// Logger used to write to stderr.
	consoleErrorLogger = log.New(os.Stderr, "", log.LstdFlags)
)

// Creates a directory with specified name and stores the name in a variable.
//
// Returns a nil error if the directory already exists.
func CreateLogsDirectory(dir string) error {
	logDir = dir
	return os.MkdirAll(dir, os.ModePerm)
}

// Creates the app.log and error.log file depending on date.
//
// Appends to files if they already exist.
//
// Does not create any custom log files.
//
// # Use the CreateNewLogFile function for that.
func CreateFileLoggers() error {
	appLogFile, err := CreateNewLogFile("app")
	if err != nil {
		return err
	}

	errorLogFile, err := CreateNewLogFile("error")
	if err != nil {
		return err
	}

	appLogger = log.New(appLogFile, "", log.LstdFlags)
	errorLogger = log.New(errorLogFile, "", log.LstdFlags)

	return nil
}

// Creates the loggers for console logging.
//
// # NOTE: They will not work after closing the log files.
func CreateConsoleLoggers() {
	consoleInfoLogger = log.New(os.Stdout, "", log.LstdFlags)
	consoleErrorLogger = log.New(os.Stderr, "", log.LstdFlags)
}

// Enables or disables WriteDebug output. Mirrors debug_mode.enabled from the config.
func SetDebug(enabled bool) {
	debugEnabled.Store(enabled)
}

// Creates a new log file in logs directory with specified name.
//
// Automatically appends the new log file to open log files and closes it on app exit.
func CreateNewLogFile(name string) (*os.File, error) {
	if logDir == "" {
		return nil, errors.New("logDir not set")
	}

	f, err := os.OpenFile(filepath.Join(logDir, fmt.Sprintf("%s_%s.log", name, formatDate)), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}

	filesMu.Lock()
	openLogFiles = append(openLogFiles, f)
	filesMu.Unlock()

	return f, nil
}

// Writes a message of type interface to os.Stdout and the app.log file.
//
// Prepends time, date and InfoSign to signalise it's an info log process.
func WriteInfo(message interface{}) {
	appLogger.Println(message)
	consoleInfoLogger.Printf("[%s] %v\n", InfoSign, message)
}

// Writes a message of type interface to os.Stdout and the app.log file.
//
// Prepends time, date and SuccessSign to signalise it's a success log process.
func WriteSuccess(message interface{}) {
	appLogger.Println(message)
	consoleInfoLogger.Printf("[%s] %v\n", SuccessSign, message)
}

// Writes a message of type interface to os.Stderr and the error.log file.
//
// Prepends time, date and ErrorSign to signalise it's an error log process.
//
// # NOTE: does not shutdown the app, use default log.Fatal or os.Exit(1) for that
func WriteError(message interface{}) {
	errorLogger.Println(message)
	consoleErrorLogger.Printf("[%s] %v\n", ErrorSign, message)
}

// Writes a message of type interface to os.Stdout and the app.log file.
//
// Prepends time, date and WarnSign to signalise it's a warn log process.
//
// # NOTE: does not shutdown the app, use default log.Fatal or os.Exit(1) for that
func WriteWarn(message interface{}) {
	appLogger.Println(message)
	consoleInfoLogger.Printf("[%s] %v\n", WarnSign, message)
}

// Writes a message only if debug mode is enabled.
func WriteDebug(message interface{}) {
	if !debugEnabled.Load() {
		return
	}
	appLogger.Println(message)
	consoleInfoLogger.Printf("[%s] %v\n", DebugSign, message)
}

// Writes a recovered panic to the console and the full stack trace to the error.log file.
func WritePanic(where string, recovered interface{}, stack []byte) {
	errorLogger.Printf("panic in %s: %v\n%s", where, recovered, stack)
	consoleErrorLogger.Printf("[%s] panic in %s: %v\n", ErrorSign, where, recovered)
}

// This function closes every open log file and logger.
//
// # NOTE: only use it on app exit, else it might kill the app.
func CloseLogFiles() error {
	filesMu.Lock()
	defer filesMu.Unlock()

	appLogger = log.New(io.Discard, "", log.LstdFlags)
	errorLogger = log.New(io.Discard, "", log.LstdFlags)

	for _, f := range openLogFiles {
		err := f.Close()
		if err != nil {
			return err
		}
	}
	openLogFiles = nil

	return nil
}
