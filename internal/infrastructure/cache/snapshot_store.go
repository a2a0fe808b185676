package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/alchemorsel/fusionchef/internal/domain/session"
	"github.com/alchemorsel/fusionchef/internal/ports/outbound"
)

// SnapshotStore keeps redirect snapshots in any CacheRepository. Take relies on the
// repository's GetDel so two readers can never both receive the same snapshot.
type SnapshotStore struct {
	cache outbound.CacheRepository
}

// NewSnapshotStore creates the store
func NewSnapshotStore(cache outbound.CacheRepository) *SnapshotStore {
	return &SnapshotStore{cache: cache}
}

// Save writes the snapshot under key
func (s *SnapshotStore) Save(ctx context.Context, key string, snap session.Snapshot, ttl time.Duration) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return s.cache.Set(ctx, key, data, ttl)
}

// Take reads and deletes the snapshot under key
func (s *SnapshotStore) Take(ctx context.Context, key string) (*session.Snapshot, error) {
	data, err := s.cache.GetDel(ctx, key)
	if errors.Is(err, outbound.ErrCacheMiss) {
		return nil, outbound.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, err
	}
	var snap session.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &snap, nil
}
