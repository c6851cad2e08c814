package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository is the persistence contract for the session state. Each key
// holds one JSON document that is read once at startup and rewritten in
// full on every mutation.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
}

type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) (*GormRepository, error) {
	if err := db.AutoMigrate(&Document{}); err != nil {
		return nil, err
	}
	return &GormRepository{db: db}, nil
}

func (r *GormRepository) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var doc Document
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if doc.Version > SchemaVersion {
		return nil, false, nil
	}
	return []byte(doc.Value), true, nil
}

func (r *GormRepository) Put(ctx context.Context, key string, value []byte) error {
	doc := Document{
		Key:       key,
		Version:   SchemaVersion,
		Value:     string(value),
		UpdatedAt: time.Now(),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"version", "value", "updated_at"}),
	}).Create(&doc).Error
}

// MemoryRepository keeps documents in a map. Used by tests and as the
// fallback when no durable path is configured.
type MemoryRepository struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{docs: make(map[string][]byte)}
}

func (r *MemoryRepository) Get(ctx context.Context, key string) ([]byte, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	value, ok := r.docs[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(value))
	copy(out, value)
	return out, true, nil
}

func (r *MemoryRepository) Put(ctx context.Context, key string, value []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := make([]byte, len(value))
	copy(stored, value)
	r.docs[key] = stored
	return nil
}
