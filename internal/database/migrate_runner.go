package database

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"reviewhub/internal/middleware"

	"gorm.io/gorm"
)

// migrationLockKey is the pg advisory lock held while migrations run, so API
// replicas booting together apply each version once.
const migrationLockKey int64 = 0x7265766965777321

// MigrationLog is one applied migration.
type MigrationLog struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false" json:"version"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	AppliedAt time.Time `gorm:"autoCreateTime;index:idx_migration_logs_applied_at" json:"appliedAt"`
}

func (MigrationLog) TableName() string {
	return "migration_logs"
}

// TableStatus reports one review table as seen by `reviewctl migrate status`.
type TableStatus struct {
	Name   string `json:"name"`
	Exists bool   `json:"exists"`
	Rows   int64  `json:"rows"`
}

// appliedMigrations returns the migration log ordered by version. A database
// that never ran SQL migrations has no log table and nothing applied.
func appliedMigrations(ctx context.Context, db *gorm.DB) ([]MigrationLog, error) {
	if !db.Migrator().HasTable(&MigrationLog{}) {
		return nil, nil
	}
	var logs []MigrationLog
	if err := db.WithContext(ctx).Order("version ASC").Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("read migration_logs: %w", err)
	}
	return logs, nil
}

// pendingMigrations splits registered into what still has to run. A logged
// version the binary does not know means the database is ahead of the code.
func pendingMigrations(applied []MigrationLog, registered []Migration) ([]Migration, error) {
	done := make(map[int]bool, len(applied))
	for _, l := range applied {
		done[l.Version] = true
	}

	var unknown []string
	for _, l := range applied {
		if !slices.ContainsFunc(registered, func(m Migration) bool { return m.Version == l.Version }) {
			unknown = append(unknown, fmt.Sprintf("%06d_%s", l.Version, l.Name))
		}
	}
	if len(unknown) > 0 {
		return nil, fmt.Errorf("migration_logs has versions this build does not ship: %s", strings.Join(unknown, ", "))
	}

	var pending []Migration
	for _, m := range registered {
		if !done[m.Version] {
			pending = append(pending, m)
		}
	}
	return pending, nil
}

// RunMigrations applies every pending embedded migration in one transaction
// and checks that the review tables exist afterwards.
func RunMigrations(ctx context.Context, db *gorm.DB) error {
	return runMigrations(ctx, db, GetMigrations())
}

func runMigrations(ctx context.Context, db *gorm.DB, registered []Migration) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == "postgres" {
			if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", migrationLockKey).Error; err != nil {
				return fmt.Errorf("acquire migration lock: %w", err)
			}
		}
		if err := tx.AutoMigrate(&MigrationLog{}); err != nil {
			return fmt.Errorf("ensure migration_logs: %w", err)
		}

		applied, err := appliedMigrations(ctx, tx)
		if err != nil {
			return err
		}
		pending, err := pendingMigrations(applied, registered)
		if err != nil {
			return err
		}

		for _, m := range pending {
			start := time.Now()
			if err := tx.Exec(m.UpScript).Error; err != nil {
				return fmt.Errorf("apply migration %s: %w", m.String(), err)
			}
			if err := tx.Create(&MigrationLog{Version: m.Version, Name: m.Name}).Error; err != nil {
				return fmt.Errorf("record migration %s: %w", m.String(), err)
			}
			middleware.Logger.Info("Migration applied",
				slog.Int("version", m.Version),
				slog.String("name", m.Name),
				slog.Duration("took", time.Since(start)))
		}
		if len(pending) == 0 {
			middleware.Logger.Debug("Schema up to date", slog.Int("applied", len(applied)))
		}

		return requireReviewTables(tx)
	})
}

// requireReviewTables fails when a migration run leaves a persistent model
// without its table, which usually means the embedded SQL and the models drifted.
func requireReviewTables(db *gorm.DB) error {
	var missing []string
	for _, name := range reviewTableNames(db) {
		if !db.Migrator().HasTable(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("schema is missing review tables after migrating: %s", strings.Join(missing, ", "))
	}
	return nil
}

func reviewTableNames(db *gorm.DB) []string {
	models := PersistentModels()
	names := make([]string, 0, len(models))
	for _, model := range models {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			continue
		}
		names = append(names, stmt.Schema.Table)
	}
	return names
}

// reviewTableStatus counts rows in each review table that exists.
func reviewTableStatus(ctx context.Context, db *gorm.DB) ([]TableStatus, error) {
	var out []TableStatus
	for _, name := range reviewTableNames(db) {
		ts := TableStatus{Name: name, Exists: db.Migrator().HasTable(name)}
		if ts.Exists {
			if err := db.WithContext(ctx).Table(name).Count(&ts.Rows).Error; err != nil {
				return nil, fmt.Errorf("count %s: %w", name, err)
			}
		}
		out = append(out, ts)
	}
	return out, nil
}

// RollbackMigration runs the down script of an applied migration and drops
// its log entry in the same transaction. Only the newest version may be
// reverted so later migrations never run against a schema they did not expect.
func RollbackMigration(ctx context.Context, db *gorm.DB, version int) error {
	m := GetMigrationByVersion(version)
	if m == nil {
		return fmt.Errorf("migration version %d not found", version)
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if tx.Dialector.Name() == "postgres" {
			if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", migrationLockKey).Error; err != nil {
				return fmt.Errorf("acquire migration lock: %w", err)
			}
		}
		applied, err := appliedMigrations(ctx, tx)
		if err != nil {
			return err
		}
		if len(applied) == 0 || !slices.ContainsFunc(applied, func(l MigrationLog) bool { return l.Version == version }) {
			return fmt.Errorf("migration %d has not been applied", version)
		}
		if newest := applied[len(applied)-1].Version; newest != version {
			return fmt.Errorf("migration %d is not the newest applied version (%06d)", version, newest)
		}

		middleware.Logger.Info("Rolling back migration", slog.Int("version", version), slog.String("name", m.Name))
		if err := tx.Exec(m.DownScript).Error; err != nil {
			return fmt.Errorf("roll back migration %s: %w", m.String(), err)
		}
		if err := tx.Where("version = ?", version).Delete(&MigrationLog{}).Error; err != nil {
			return fmt.Errorf("remove migration record %d: %w", version, err)
		}
		return nil
	})
}
