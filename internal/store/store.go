// Package store persists recipes, production BoMs and their master data
// with gorm on sqlite or postgres.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/piwi3910/FilmBoM/internal/logger"
	"github.com/piwi3910/FilmBoM/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// Store wraps a gorm handle, which is a transaction inside Transaction.
type Store struct {
	db  *gorm.DB
	log *logger.Logger
}

// Open connects to the database selected by cfg.
func Open(cfg model.AppConfig) (*gorm.DB, error) {
	dsn := strings.TrimSpace(cfg.DatabaseDSN)
	if dsn == "" {
		return nil, fmt.Errorf("database DSN must not be empty")
	}

	var dialector gorm.Dialector
	switch strings.ToLower(cfg.DatabaseDriver) {
	case "", "sqlite", "sqlite3":
		dialector = sqlite.Open(dsn)
	case "postgres", "postgresql":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		PrepareStmt:            true,
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Default.LogMode(gormlogger.Warn),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

// New wraps db. A nil log discards messages.
func New(db *gorm.DB, log *logger.Logger) *Store {
	if log == nil {
		log = logger.Nop()
	}
	return &Store{db: db, log: log}
}

// DB returns the underlying handle.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Close releases the connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Migrate creates or updates every table.
func (s *Store) Migrate() error {
	if s.db == nil {
		return fmt.Errorf("database handle is nil")
	}
	return s.db.AutoMigrate(
		&model.UoMCategory{},
		&model.UoM{},
		&model.UoMCategoryTemplate{},
		&model.UoMTemplate{},
		&model.ProductCategory{},
		&model.Product{},
		&model.TheoreticalDensity{},
		&model.Workcenter{},
		&model.BoM{},
		&model.Extruder{},
		&model.BoMLine{},
		&model.Byproduct{},
		&model.Activity{},
		&sequence{},
	)
}

// Transaction runs fn against a store bound to a single transaction. Any
// error returned by fn rolls back every write made through it.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx, log: s.log})
	})
}

func (s *Store) with(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// Create inserts any model value.
func (s *Store) Create(ctx context.Context, value any) error {
	if err := s.with(ctx).Create(value).Error; err != nil {
		return fmt.Errorf("failed to create %T: %w", value, err)
	}
	return nil
}

func notFound(err error, what, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
	}
	return fmt.Errorf("failed to load %s %s: %w", what, id, err)
}

// sequence numbers records of one kind.
type sequence struct {
	Code string `gorm:"primaryKey;size:64"`
	Next int
}

// NextNumber returns the next number of sequence code, formatted with
// prefix and five digits.
func (s *Store) NextNumber(ctx context.Context, code, prefix string) (string, error) {
	db := s.with(ctx)
	var seq sequence
	err := db.Where("code = ?", code).Take(&seq).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		seq = sequence{Code: code, Next: 1}
		if err := db.Create(&seq).Error; err != nil {
			return "", fmt.Errorf("failed to create sequence %s: %w", code, err)
		}
	case err != nil:
		return "", fmt.Errorf("failed to read sequence %s: %w", code, err)
	}
	number := seq.Next
	if err := db.Model(&sequence{}).Where("code = ?", code).Update("next", number+1).Error; err != nil {
		return "", fmt.Errorf("failed to advance sequence %s: %w", code, err)
	}
	return fmt.Sprintf("%s%05d", prefix, number), nil
}

// AdvanceSequence makes sure sequence code never hands out a number lower
// than or equal to n.
func (s *Store) AdvanceSequence(ctx context.Context, code string, n int) error {
	db := s.with(ctx)
	var seq sequence
	err := db.Where("code = ?", code).Take(&seq).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := db.Create(&sequence{Code: code, Next: n + 1}).Error; err != nil {
			return fmt.Errorf("failed to create sequence %s: %w", code, err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("failed to read sequence %s: %w", code, err)
	}
	if seq.Next > n {
		return nil
	}
	if err := db.Model(&sequence{}).Where("code = ?", code).Update("next", n+1).Error; err != nil {
		return fmt.Errorf("failed to advance sequence %s: %w", code, err)
	}
	return nil
}
