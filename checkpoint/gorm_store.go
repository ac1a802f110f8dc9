package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// checkpointRecord is the persisted row for one snapshot version.
type checkpointRecord struct {
	ID        uint   `gorm:"primaryKey"`
	RunID     string `gorm:"index;size:64;not null"`
	Data      []byte `gorm:"not null"`
	CreatedAt time.Time
}

func (checkpointRecord) TableName() string { return "checkpoints" }

// GormStore is a sqlite-backed implementation of Store. Unlike the file
// backend it keeps every snapshot version, so earlier points of a run can be
// inspected after the fact; Load returns the most recent one.
type GormStore struct {
	db *gorm.DB
}

// Compile-time interface compliance check.
var _ Store = (*GormStore)(nil)

// NewGormStore opens (or creates) the sqlite database at path and migrates
// the checkpoint schema.
func NewGormStore(path string) (*GormStore, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint database: %w", err)
	}
	if err := db.AutoMigrate(&checkpointRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate checkpoint schema: %w", err)
	}
	return &GormStore{db: db}, nil
}

// Save appends a new snapshot version for the run.
func (s *GormStore) Save(ctx context.Context, snap *Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	record := checkpointRecord{RunID: snap.RunID, Data: data}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// Load returns the most recent snapshot version for the run.
func (s *GormStore) Load(ctx context.Context, runID string) (*Snapshot, error) {
	var record checkpointRecord
	err := s.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("id DESC").
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(record.Data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	return &snap, nil
}

// Versions returns how many snapshot versions exist for the run.
func (s *GormStore) Versions(ctx context.Context, runID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&checkpointRecord{}).
		Where("run_id = ?", runID).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count snapshots: %w", err)
	}
	return count, nil
}

// Delete removes all snapshot versions for the run.
func (s *GormStore) Delete(ctx context.Context, runID string) error {
	err := s.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Delete(&checkpointRecord{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete snapshots: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
