package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"testing"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver for database/sql
	"github.com/suteetoe/merchant-service/internal/migration"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDBConfig holds configuration for test database connections
type TestDBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	SSLMode  string
}

// GetTestDBConfig loads test database configuration from environment variables.
// It returns nil when TEST_DB_HOST is unset.
func GetTestDBConfig() *TestDBConfig {
	host := os.Getenv("TEST_DB_HOST")
	if host == "" {
		return nil
	}
	return &TestDBConfig{
		Host:     host,
		Port:     getEnvAsInt("TEST_DB_PORT", 5432),
		User:     getEnv("TEST_DB_USER", "postgres"),
		Password: getEnv("TEST_DB_PASSWORD", "postgres"),
		SSLMode:  getEnv("TEST_DB_SSL_MODE", "disable"),
	}
}

func (c *TestDBConfig) dsn(dbName string) string {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.SSLMode)
	if dbName != "" {
		dsn += " dbname=" + dbName
	}
	return dsn
}

// TestDB is a throwaway database with all migrations applied
type TestDB struct {
	DB       *gorm.DB
	Name     string
	Migrator *migration.Migrator
	config   *TestDBConfig
}

// SetupTestDB creates a uniquely named database, migrates it and drops it
// when the test finishes. The test is skipped when no server is configured.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	config := GetTestDBConfig()
	if config == nil {
		t.Skip("TEST_DB_HOST not set; skipping PostgreSQL test")
	}

	dbName := fmt.Sprintf("merchant_test_%d_%d", time.Now().Unix(), rand.Intn(10000))

	admin, err := sql.Open("postgres", config.dsn("postgres"))
	if err != nil {
		t.Fatalf("failed to connect to PostgreSQL: %v", err)
	}
	defer admin.Close()

	if _, err := admin.Exec("CREATE DATABASE " + dbName); err != nil {
		t.Fatalf("failed to create test database %s: %v", dbName, err)
	}

	db, err := gorm.Open(postgres.Open(config.dsn(dbName)), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		dropDatabase(config, dbName)
		t.Fatalf("failed to connect to test database %s: %v", dbName, err)
	}

	tdb := &TestDB{DB: db, Name: dbName, config: config}
	t.Cleanup(func() {
		if err := tdb.teardown(); err != nil {
			t.Logf("Warning: failed to cleanup test database: %v", err)
		}
	})

	tdb.Migrator, err = migration.NewMigrator(db, zap.NewNop())
	if err != nil {
		t.Fatalf("failed to load migrations: %v", err)
	}
	if _, err := tdb.Migrator.Up(context.Background()); err != nil {
		t.Fatalf("failed to run migrations on test database %s: %v", dbName, err)
	}

	return tdb
}

// ClearMerchants truncates the merchants table
func (tdb *TestDB) ClearMerchants() error {
	if err := tdb.DB.Exec("TRUNCATE TABLE merchants RESTART IDENTITY CASCADE").Error; err != nil {
		return fmt.Errorf("failed to truncate table merchants: %w", err)
	}
	return nil
}

func (tdb *TestDB) teardown() error {
	if sqlDB, err := tdb.DB.DB(); err == nil {
		sqlDB.Close()
	}
	return dropDatabase(tdb.config, tdb.Name)
}

func dropDatabase(config *TestDBConfig, dbName string) error {
	admin, err := sql.Open("postgres", config.dsn("postgres"))
	if err != nil {
		return err
	}
	defer admin.Close()

	// Force disconnect all connections to the test database
	_, _ = admin.Exec(
		"SELECT pg_terminate_backend(pid) FROM pg_stat_activity WHERE datname = $1 AND pid <> pg_backend_pid()",
		dbName)

	if _, err := admin.Exec("DROP DATABASE IF EXISTS " + dbName); err != nil {
		return fmt.Errorf("failed to drop test database %s: %w", dbName, err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
