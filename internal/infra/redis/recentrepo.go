package redis

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// recentRepoTTL bounds how long a visit is remembered.
const recentRepoTTL = 30 * 24 * time.Hour

// RecentRepoStore remembers the repository a viewer visited most
// recently within an owner, so the list can surface it above the fold.
type RecentRepoStore struct {
	client *Client
}

// NewRecentRepoStore creates a RecentRepoStore.
func NewRecentRepoStore(client *Client) (*RecentRepoStore, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	return &RecentRepoStore{client: client}, nil
}

func (s *RecentRepoStore) key(provider, owner string) string {
	return fmt.Sprintf("recent-repo:%s:%s", provider, owner)
}

// Get returns the most recently visited repo name for the owner, or ""
// when none is recorded.
func (s *RecentRepoStore) Get(ctx context.Context, provider, owner string) (string, error) {
	name, err := s.client.Get(ctx, s.key(provider, owner))
	if errors.Is(err, ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("recent repo get: %w", err)
	}
	return name, nil
}

// Record stores a repo visit, replacing any previous one.
func (s *RecentRepoStore) Record(ctx context.Context, provider, owner, name string) error {
	if name == "" {
		return errors.New("repo name is required")
	}
	if err := s.client.Set(ctx, s.key(provider, owner), name, recentRepoTTL); err != nil {
		return fmt.Errorf("recent repo record: %w", err)
	}
	return nil
}
