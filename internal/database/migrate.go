package database

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/models"
)

// RunMigrations brings the schema up to date. SQLite uses GORM auto-migration,
// PostgreSQL applies the SQL files in migrationsDir that are not yet recorded in schema_migrations.
func RunMigrations(db *gorm.DB, migrationsDir string, log *zap.Logger) error {
	if db.Dialector.Name() == "sqlite" {
		log.Info("using GORM auto-migration for SQLite")
		return AutoMigrate(db)
	}

	files, err := MigrationFiles(migrationsDir)
	if err != nil {
		return err
	}

	if err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(32) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`).Error; err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	for _, file := range files {
		version := MigrationVersion(file)

		var count int64
		if err := db.Table("schema_migrations").Where("version = ?", version).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check migration status: %w", err)
		}
		if count > 0 {
			log.Debug("skipping applied migration", zap.String("file", file))
			continue
		}

		content, err := os.ReadFile(filepath.Join(migrationsDir, file))
		if err != nil {
			return fmt.Errorf("failed to read migration file %s: %w", file, err)
		}

		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(string(content)).Error; err != nil {
				return fmt.Errorf("failed to execute migration %s: %w", file, err)
			}
			if err := tx.Exec("INSERT INTO schema_migrations (version, name) VALUES (?, ?)", version, file).Error; err != nil {
				return fmt.Errorf("failed to record migration %s: %w", file, err)
			}
			return nil
		})
		if err != nil {
			return err
		}

		log.Info("applied migration", zap.String("file", file))
	}

	return nil
}

// AutoMigrate creates every table from the models, including the per-kind membership tables
func AutoMigrate(db *gorm.DB) error {
	if err := setupJoinTables(db); err != nil {
		return err
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Tag{},
		&models.Ingredient{},
		&models.Recipe{},
		&models.RecipeIngredient{},
		&models.RecipeTag{},
		&models.Follow{},
	); err != nil {
		return fmt.Errorf("failed to migrate models: %w", err)
	}

	for _, kind := range models.MembershipKinds {
		table := kind.Table()
		if err := db.Table(table).AutoMigrate(&models.Membership{}); err != nil {
			return fmt.Errorf("failed to migrate %s: %w", table, err)
		}
		indexes := []string{
			fmt.Sprintf("CREATE UNIQUE INDEX IF NOT EXISTS uniq_%s_user_recipe ON %s (user_id, recipe_id)", table, table),
			fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_recipe_id ON %s (recipe_id)", table, table),
		}
		for _, stmt := range indexes {
			if err := db.Exec(stmt).Error; err != nil {
				return fmt.Errorf("failed to index %s: %w", table, err)
			}
		}
	}

	return nil
}

// MigrationFiles lists the forward migrations in dir, ordered by name
func MigrationFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".sql") || strings.HasSuffix(name, "_rollback.sql") {
			continue
		}
		files = append(files, name)
	}
	sort.Strings(files)
	return files, nil
}

// MigrationVersion extracts VERSION from a VERSION_name.sql file name
func MigrationVersion(file string) string {
	return strings.SplitN(file, "_", 2)[0]
}

// RollbackFile returns the rollback companion of a migration file
func RollbackFile(file string) string {
	return strings.TrimSuffix(file, ".sql") + "_rollback.sql"
}
