package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/market-briefing/internal/models"
	"github.com/market-briefing/internal/storage"
)

// Repository implements storage.Repository using SQLite
type Repository struct {
	db       *gorm.DB
	maxBytes int64
}

// Option configures a Repository
type Option func(*Repository)

// WithMaxBytes sets the total quota across all documents. Zero disables it.
func WithMaxBytes(n int64) Option {
	return func(r *Repository) { r.maxBytes = n }
}

// New creates a new SQLite repository
func New(dsn string, opts ...Option) (*Repository, error) {
	// Ensure directory exists
	if dsn != ":memory:" {
		dir := filepath.Dir(dsn)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %w", err)
			}
		}
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	r := &Repository{db: db, maxBytes: storage.DefaultMaxBytes}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Migrate runs database migrations
func (r *Repository) Migrate() error {
	return r.db.AutoMigrate(&models.Document{})
}

// Close closes the database connection
func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (r *Repository) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var doc models.Document
	err := r.db.WithContext(ctx).Where(map[string]any{"key": key}).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", key, err)
	}
	return []byte(doc.Value), true, nil
}

func (r *Repository) Set(ctx context.Context, key string, value []byte) error {
	if r.maxBytes > 0 {
		used, err := r.usedExcept(ctx, key)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", storage.ErrStorageWriteFailed, key, err)
		}
		if used+int64(len(value)) > r.maxBytes {
			return fmt.Errorf("%w: %s: quota of %d bytes exceeded", storage.ErrStorageWriteFailed, key, r.maxBytes)
		}
	}

	doc := models.Document{Key: key, Value: datatypes.JSON(value)}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&doc).Error
	if err != nil {
		return fmt.Errorf("%w: %s: %v", storage.ErrStorageWriteFailed, key, err)
	}
	return nil
}

func (r *Repository) Exists(ctx context.Context, key string) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Document{}).Where(map[string]any{"key": key}).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *Repository) Delete(ctx context.Context, key string) error {
	return r.db.WithContext(ctx).Where(map[string]any{"key": key}).Delete(&models.Document{}).Error
}

// usedExcept sums the stored size of every document other than key
func (r *Repository) usedExcept(ctx context.Context, key string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.Document{}).
		Not(map[string]any{"key": key}).
		Select("COALESCE(SUM(LENGTH(CAST(value AS BLOB))), 0)").
		Scan(&total).Error
	return total, err
}
