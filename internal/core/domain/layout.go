package domain

import "path/filepath"

const (
	// ForgeDirName is the name of the internal workspace directory.
	ForgeDirName = ".forge"

	// DatabaseFileName is the name of the default SQLite database file.
	DatabaseFileName = "forge.db"

	// LogsDirName is the name of the build log directory.
	LogsDirName = "logs"

	// ForgeFileName is the name of the catalog configuration file.
	ForgeFileName = "forge.yaml"

	// DebugLogFile is the name of the debug log file.
	DebugLogFile = "debug.log"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// DefaultForgePath returns the default root directory for forge metadata.
func DefaultForgePath() string {
	return ForgeDirName
}

// DefaultDatabasePath returns the default path of the SQLite database.
// It joins .forge and forge.db.
func DefaultDatabasePath() string {
	return filepath.Join(ForgeDirName, DatabaseFileName)
}

// DefaultLogsPath returns the default directory for build script output.
// It joins .forge and logs.
func DefaultLogsPath() string {
	return filepath.Join(ForgeDirName, LogsDirName)
}

// DefaultDebugLogPath returns the default path for the debug log.
// It joins .forge and debug.log.
func DefaultDebugLogPath() string {
	return filepath.Join(ForgeDirName, DebugLogFile)
}
