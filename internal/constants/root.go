package constants

const (
	AppName           = "progress"
	DefaultConfigPath = "~/.config/progress/progress.db"
	DefaultConfigFile = "~/.config/progress/config.json"
	Version           = "v0.3.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// ModelName is the base name every bundled schema version is registered under.
	// Version names take the form "ProgressTrackerModel <n>".
	ModelName = "ProgressTrackerModel"

	// ApplicationID is stamped into the SQLite header (PRAGMA application_id)
	// of every store this application creates. The bytes spell "PTRK".
	ApplicationID int32 = 0x5054524b

	// Store file triplet suffixes
	WALSuffix = "-wal"
	SHMSuffix = "-shm"

	// Migration working files
	MigratingSuffix = ".migrating"
	LockSuffix      = ".lock"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "progress-"
	BackupFileSuffix = ".db"

	// Logging
	LogDirName  = "logs"
	LogFileName = "progress.log"
)
