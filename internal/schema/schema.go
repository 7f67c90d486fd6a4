// Package schema resolves the bundled definitions of each store schema
// generation and applies them to fresh SQLite files.
package schema

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/julianstephens/progresstracker/internal/constants"
	"github.com/julianstephens/progresstracker/schemas"
)

const (
	// Latest is the schema generation the application runs on.
	Latest = 3

	filePrefix = "model_"
	fileSuffix = ".sql"
)

// ErrSchemaUnavailable is returned when a version's bundled definition cannot
// be resolved.
var ErrSchemaUnavailable = errors.New("schema unavailable")

// Model is one schema generation.
type Model struct {
	Name    string
	Version int
	DDL     string
}

// Fingerprint identifies a schema generation in a store file header.
type Fingerprint struct {
	ApplicationID int32
	Version       int
}

// Fingerprint returns the header values a store on this model carries.
func (m *Model) Fingerprint() Fingerprint {
	return Fingerprint{ApplicationID: constants.ApplicationID, Version: m.Version}
}

// Execer is satisfied by *sql.DB and *sql.Tx.
type Execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// Apply creates the model's tables and stamps the header fingerprint.
func (m *Model) Apply(db Execer) error {
	if _, err := db.Exec(m.DDL); err != nil {
		return fmt.Errorf("failed to create %s tables: %w", m.Name, err)
	}
	return m.Stamp(db)
}

// Stamp writes the model's fingerprint into the SQLite header.
func (m *Model) Stamp(db Execer) error {
	fp := m.Fingerprint()
	// PRAGMA values cannot be bound as parameters.
	if _, err := db.Exec(fmt.Sprintf("PRAGMA application_id = %d", fp.ApplicationID)); err != nil {
		return fmt.Errorf("failed to set application id: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", fp.Version)); err != nil {
		return fmt.Errorf("failed to set schema version: %w", err)
	}
	return nil
}

// VersionName returns the human readable name of a schema version,
// e.g. "ProgressTrackerModel 2".
func VersionName(version int) string {
	return fmt.Sprintf("%s %d", constants.ModelName, version)
}

// ParseVersionName extracts the version number from a name produced by
// VersionName.
func ParseVersionName(name string) (int, error) {
	rest, ok := strings.CutPrefix(name, constants.ModelName+" ")
	if !ok {
		return 0, fmt.Errorf("invalid schema version name %q", name)
	}
	version, err := strconv.Atoi(rest)
	if err != nil || version < 1 {
		return 0, fmt.Errorf("invalid schema version name %q", name)
	}
	return version, nil
}

// HasUpgradePath reports whether a store on version from can be stepped
// forward to version to.
func HasUpgradePath(from, to int) bool {
	return from >= 1 && from < to && to <= Latest
}

// Loader resolves schema definitions from a filesystem. It holds no state
// besides the filesystem, so every call reads the definition again.
type Loader struct {
	fs fs.FS
}

// NewLoader creates a loader over fsys.
func NewLoader(fsys fs.FS) *Loader {
	return &Loader{fs: fsys}
}

// Default resolves the definitions bundled with the binary.
var Default = NewLoader(schemas.FS)

// Load resolves a schema by version name.
func (l *Loader) Load(name string) (*Model, error) {
	version, err := ParseVersionName(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaUnavailable, err)
	}
	return l.LoadVersion(version)
}

// LoadVersion resolves a schema by version number.
func (l *Loader) LoadVersion(version int) (*Model, error) {
	file := filePrefix + strconv.Itoa(version) + fileSuffix
	content, err := fs.ReadFile(l.fs, file)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSchemaUnavailable, VersionName(version), err)
	}
	if strings.TrimSpace(string(content)) == "" {
		return nil, fmt.Errorf("%w: %s is empty", ErrSchemaUnavailable, VersionName(version))
	}
	return &Model{
		Name:    VersionName(version),
		Version: version,
		DDL:     string(content),
	}, nil
}

// Load resolves a bundled schema by version name.
func Load(name string) (*Model, error) {
	return Default.Load(name)
}

// LoadVersion resolves a bundled schema by version number.
func LoadVersion(version int) (*Model, error) {
	return Default.LoadVersion(version)
}
