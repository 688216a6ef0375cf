// Package migration applies the versioned SQL schema migrations embedded in the binary
package migration

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed sql/*.sql
var files embed.FS

// Migration is one schema change, identified by a timestamp version
type Migration struct {
	Version string
	Name    string
	Up      string
	Down    string
}

// Load reads the embedded migrations ordered by version. Every migration
// needs both an .up.sql and a .down.sql file.
func Load() ([]Migration, error) {
	return load(files, "sql")
}

func load(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}

	byVersion := make(map[string]*Migration)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		filename := entry.Name()

		var direction string
		switch {
		case strings.HasSuffix(filename, ".up.sql"):
			direction = "up"
		case strings.HasSuffix(filename, ".down.sql"):
			direction = "down"
		default:
			continue
		}

		base := strings.TrimSuffix(filename, "."+direction+".sql")
		version, name, ok := strings.Cut(base, "_")
		if !ok || version == "" || name == "" {
			return nil, fmt.Errorf("malformed migration filename %q", filename)
		}

		content, err := fs.ReadFile(fsys, path.Join(dir, filename))
		if err != nil {
			return nil, fmt.Errorf("failed to read migration file %s: %w", filename, err)
		}

		m, exists := byVersion[version]
		if !exists {
			m = &Migration{Version: version, Name: name}
			byVersion[version] = m
		} else if m.Name != name {
			return nil, fmt.Errorf("migration %s has conflicting names %q and %q", version, m.Name, name)
		}

		if direction == "up" {
			m.Up = string(content)
		} else {
			m.Down = string(content)
		}
	}

	migrations := make([]Migration, 0, len(byVersion))
	for _, m := range byVersion {
		if strings.TrimSpace(m.Up) == "" || strings.TrimSpace(m.Down) == "" {
			return nil, fmt.Errorf("migration %s_%s needs both up and down files", m.Version, m.Name)
		}
		migrations = append(migrations, *m)
	}
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	return migrations, nil
}

// statements splits a migration file into individual statements
func statements(sql string) []string {
	var out []string
	for _, stmt := range strings.Split(sql, ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

// Migrator tracks applied versions in schema_migrations
type Migrator struct {
	db         *gorm.DB
	migrations []Migration
	log        *zap.Logger
}

// NewMigrator creates a migrator over the embedded migrations
func NewMigrator(db *gorm.DB, log *zap.Logger) (*Migrator, error) {
	migrations, err := Load()
	if err != nil {
		return nil, err
	}
	return &Migrator{db: db, migrations: migrations, log: log}, nil
}

func (m *Migrator) ensureVersionTable(ctx context.Context) error {
	err := m.db.WithContext(ctx).
		Exec("CREATE TABLE IF NOT EXISTS schema_migrations (version character varying PRIMARY KEY)").Error
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}
	return nil
}

// Applied returns the applied versions in ascending order
func (m *Migrator) Applied(ctx context.Context) ([]string, error) {
	if err := m.ensureVersionTable(ctx); err != nil {
		return nil, err
	}

	var versions []string
	err := m.db.WithContext(ctx).Table("schema_migrations").Order("version ASC").Pluck("version", &versions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read applied migrations: %w", err)
	}
	return versions, nil
}

// Up applies every pending migration, each in its own transaction, and
// returns the versions it applied.
func (m *Migrator) Up(ctx context.Context) ([]string, error) {
	applied, err := m.Applied(ctx)
	if err != nil {
		return nil, err
	}
	done := make(map[string]bool, len(applied))
	for _, v := range applied {
		done[v] = true
	}

	var ran []string
	for _, mig := range m.migrations {
		if done[mig.Version] {
			continue
		}

		err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			for _, stmt := range statements(mig.Up) {
				if err := tx.Exec(stmt).Error; err != nil {
					return err
				}
			}
			return tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", mig.Version).Error
		})
		if err != nil {
			return ran, fmt.Errorf("failed to apply migration %s_%s: %w", mig.Version, mig.Name, err)
		}

		m.log.Info("Applied migration", zap.String("version", mig.Version), zap.String("name", mig.Name))
		ran = append(ran, mig.Version)
	}

	return ran, nil
}

// Down rolls back the most recently applied migration. It returns an empty
// version when nothing is applied.
func (m *Migrator) Down(ctx context.Context) (string, error) {
	applied, err := m.Applied(ctx)
	if err != nil {
		return "", err
	}
	if len(applied) == 0 {
		return "", nil
	}
	latest := applied[len(applied)-1]

	var target *Migration
	for i := range m.migrations {
		if m.migrations[i].Version == latest {
			target = &m.migrations[i]
			break
		}
	}
	if target == nil {
		return "", fmt.Errorf("applied migration %s is unknown to this binary", latest)
	}

	err = m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, stmt := range statements(target.Down) {
			if err := tx.Exec(stmt).Error; err != nil {
				return err
			}
		}
		return tx.Exec("DELETE FROM schema_migrations WHERE version = ?", target.Version).Error
	})
	if err != nil {
		return "", fmt.Errorf("failed to roll back migration %s_%s: %w", target.Version, target.Name, err)
	}

	m.log.Info("Rolled back migration", zap.String("version", target.Version), zap.String("name", target.Name))
	return target.Version, nil
}
