package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DraftStore keeps the page State of each browser session in redis, so an
// edit in progress survives a reload.
type DraftStore struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewDraftStore(client *redis.Client, ttl time.Duration) *DraftStore {
	return &DraftStore{redis: client, ttl: ttl}
}

func draftKey(sessionID string) string {
	return "profile:state:" + sessionID
}

func (d *DraftStore) Load(ctx context.Context, sessionID string) (State, error) {
	raw, err := d.redis.Get(ctx, draftKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return InitialState(), nil
	}
	if err != nil {
		return InitialState(), fmt.Errorf("load page state: %w", err)
	}

	var st State
	if err := json.Unmarshal(raw, &st); err != nil {
		return InitialState(), fmt.Errorf("decode page state: %w", err)
	}
	return st, nil
}

func (d *DraftStore) Save(ctx context.Context, sessionID string, st State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return d.redis.Set(ctx, draftKey(sessionID), string(data), d.ttl).Err()
}
