package db

import (
	"errors"
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strconv"
	"strings"

	embeddedmigrations "github.com/terraincognita07/timebill/migrations"
	"gorm.io/gorm"
)

var migrationNamePattern = regexp.MustCompile(`^(\d+)_.*\.sql$`)
var addColumnPattern = regexp.MustCompile(`(?i)^ALTER\s+TABLE\s+([^\s]+)\s+ADD\s+COLUMN\s+([^\s]+)\b`)

type migrationFile struct {
	Version string
	Order   int
	Name    string
	SQL     string
}

// MigrationStatus describes how far the schema is behind the embedded migrations.
type MigrationStatus struct {
	Applied []string
	Pending []string
}

func (status MigrationStatus) UpToDate() bool {
	return len(status.Pending) == 0
}

// ApplyMigrations runs every embedded migration not yet recorded in schema_migrations
// and returns the names it applied.
func ApplyMigrations(database *gorm.DB) ([]string, error) {
	status, files, err := inspectMigrations(database)
	if err != nil {
		return nil, err
	}

	pending := make(map[string]struct{}, len(status.Pending))
	for _, name := range status.Pending {
		pending[name] = struct{}{}
	}

	applied := make([]string, 0, len(pending))
	for _, file := range files {
		if _, ok := pending[file.Name]; !ok {
			continue
		}
		if err := runMigration(database, file); err != nil {
			return applied, err
		}
		applied = append(applied, file.Name)
	}
	return applied, nil
}

// InspectMigrations reports applied and pending migrations without changing the schema.
func InspectMigrations(database *gorm.DB) (MigrationStatus, error) {
	status, _, err := inspectMigrations(database)
	return status, err
}

func inspectMigrations(database *gorm.DB) (MigrationStatus, []migrationFile, error) {
	if err := createSchemaMigrationsTable(database); err != nil {
		return MigrationStatus{}, nil, err
	}

	files, err := readMigrationFiles(embeddedmigrations.Files)
	if err != nil {
		return MigrationStatus{}, nil, err
	}

	recorded, err := recordedVersions(database)
	if err != nil {
		return MigrationStatus{}, nil, err
	}

	status := MigrationStatus{
		Applied: make([]string, 0, len(files)),
		Pending: make([]string, 0, len(files)),
	}
	for _, file := range files {
		if _, ok := recorded[file.Version]; ok {
			status.Applied = append(status.Applied, file.Name)
			continue
		}
		status.Pending = append(status.Pending, file.Name)
	}
	return status, files, nil
}

func createSchemaMigrationsTable(database *gorm.DB) error {
	const createTableSQL = `
CREATE TABLE IF NOT EXISTS schema_migrations (
  version TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);`
	if err := database.Exec(createTableSQL).Error; err != nil {
		return fmt.Errorf("create schema_migrations table: %w", err)
	}
	return nil
}

func readMigrationFiles(source fs.FS) ([]migrationFile, error) {
	entries, err := fs.ReadDir(source, ".")
	if err != nil {
		return nil, fmt.Errorf("read embedded migrations: %w", err)
	}

	files := make([]migrationFile, 0, len(entries))
	byVersion := make(map[string]string, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := strings.TrimSpace(entry.Name())
		matches := migrationNamePattern.FindStringSubmatch(name)
		if len(matches) != 2 {
			continue
		}

		version := matches[1]
		order, err := strconv.Atoi(version)
		if err != nil {
			return nil, fmt.Errorf("parse migration version from %s: %w", name, err)
		}
		if existing, ok := byVersion[version]; ok {
			return nil, fmt.Errorf("duplicate migration version %s in %s and %s", version, existing, name)
		}
		byVersion[version] = name

		body, err := fs.ReadFile(source, name)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}

		files = append(files, migrationFile{
			Version: version,
			Order:   order,
			Name:    name,
			SQL:     string(body),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].Order == files[j].Order {
			return files[i].Name < files[j].Name
		}
		return files[i].Order < files[j].Order
	})
	return files, nil
}

type schemaMigrationRow struct {
	Version string `gorm:"column:version"`
}

func recordedVersions(database *gorm.DB) (map[string]struct{}, error) {
	rows := make([]schemaMigrationRow, 0)
	if err := database.Raw(`SELECT version FROM schema_migrations`).Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("load applied migration versions: %w", err)
	}

	versions := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		versions[row.Version] = struct{}{}
	}
	return versions, nil
}

func runMigration(database *gorm.DB, file migrationFile) error {
	return database.Transaction(func(tx *gorm.DB) error {
		statements := splitStatements(file.SQL)
		if len(statements) == 0 {
			return errors.New("migration has no SQL statements")
		}

		for _, statement := range statements {
			exists, err := addedColumnExists(tx, statement)
			if err != nil {
				return fmt.Errorf("inspect migration %s: %w", file.Name, err)
			}
			if exists {
				continue
			}
			if err := tx.Exec(statement).Error; err != nil {
				return fmt.Errorf("execute migration %s statement %q: %w", file.Name, statement, err)
			}
		}

		if err := tx.Exec(
			`INSERT INTO schema_migrations(version, name) VALUES (?, ?)`,
			file.Version,
			file.Name,
		).Error; err != nil {
			return fmt.Errorf("record migration %s: %w", file.Name, err)
		}
		return nil
	})
}

func splitStatements(sqlText string) []string {
	parts := strings.Split(sqlText, ";")
	statements := make([]string, 0, len(parts))
	for _, part := range parts {
		statement := strings.TrimSpace(part)
		if statement != "" {
			statements = append(statements, statement)
		}
	}
	return statements
}

// addedColumnExists lets ALTER TABLE ... ADD COLUMN statements replay on a schema that
// already carries the column.
func addedColumnExists(database *gorm.DB, statement string) (bool, error) {
	matches := addColumnPattern.FindStringSubmatch(strings.TrimSpace(statement))
	if len(matches) != 3 {
		return false, nil
	}
	return columnExists(database, trimIdentifier(matches[1]), trimIdentifier(matches[2]))
}

type tableInfoRow struct {
	Name string `gorm:"column:name"`
}

func columnExists(database *gorm.DB, table string, column string) (bool, error) {
	query := fmt.Sprintf(`PRAGMA table_info("%s")`, strings.ReplaceAll(table, `"`, `""`))

	rows := make([]tableInfoRow, 0)
	if err := database.Raw(query).Scan(&rows).Error; err != nil {
		return false, fmt.Errorf("load table_info for %s: %w", table, err)
	}
	for _, row := range rows {
		if strings.EqualFold(strings.TrimSpace(row.Name), column) {
			return true, nil
		}
	}
	return false, nil
}

func trimIdentifier(identifier string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(identifier), "\"`[]"))
}
