package logging

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	logPrefix = regexp.MustCompile(`^\d{4}/\d{2}/\d{2}\s\d{2}:\d{2}:\d{2}\s`)
	// Stack trace lines of recovered panics start with a tab or "goroutine".
	stackLine = regexp.MustCompile(`^(\t|goroutine |\S+\.go:\d+|\S+\(.*\)$)`)
)

// Reads today's error log and returns a printable summary of the errors found.
//
// Stack traces following a panic line are skipped, only the panic line itself is reported.
func CheckErrorLogs(logsDir string) (string, error) {
	if !logsDirExist(logsDir) {
		return "", errors.New("logs directory does not exist")
	}

	f, err := loadErrorLog(logsDir)
	if err != nil {
		return "", err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)

	foundErrs := []string{}
	for scanner.Scan() {
		line := scanner.Text()
		if !logPrefix.MatchString(line) {
			if line == "" || stackLine.MatchString(line) {
				continue
			}
		}
		// Remove any logging information in front of the error.
		foundErrs = append(foundErrs, logPrefix.ReplaceAllString(line, ""))
	}

	if err := scanner.Err(); err != nil {
		return "", err
	}

	if len(foundErrs) == 0 {
		return "", nil
	}

	return fmt.Sprintf("\nFound %d error(s) in error log file.\nThe following errors have been found:\n\n%s", len(foundErrs), strings.Join(foundErrs, "\n")), nil
}

func logsDirExist(logsDir string) bool {
	_, err := os.Stat(logsDir)
	return !os.IsNotExist(err)
}

func loadErrorLog(logsDir string) (*os.File, error) {
	return os.Open(filepath.Join(logsDir, fmt.Sprintf("error_%s.log", formatDate)))
}
