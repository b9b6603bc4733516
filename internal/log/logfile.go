package log

import (
	"os"
	"path/filepath"
)

// DefaultLogFilePath returns the path to the rotated log file.
// If REBASEPR_LOG_FILE is set, uses that path. Otherwise ~/.rebasepr/logs/rebasepr.log.
func DefaultLogFilePath() string {
	if customPath := os.Getenv("REBASEPR_LOG_FILE"); customPath != "" {
		return customPath
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "rebasepr.log"
	}

	return filepath.Join(homeDir, ".rebasepr", "logs", "rebasepr.log")
}
