package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store mirrors the authoritative in-process session table into Redis so ops
// tooling and sibling services can read who is online. The session table
// never reads it back; a Redis outage degrades visibility, not correctness.
//
// Keys: <prefix>:online:<name> -> json {socket_id, since}
type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

type meta struct {
	SocketID string `json:"socket_id"`
	Since    int64  `json:"since"`
}

func NewStore(client *redis.Client, prefix string) *Store {
	return &Store{client: client, prefix: prefix, ttl: 24 * time.Hour}
}

func (s *Store) key(name string) string {
	return fmt.Sprintf("%s:online:%s", s.prefix, name)
}

func (s *Store) Online(ctx context.Context, name, socketID string) error {
	b, err := json.Marshal(meta{SocketID: socketID, Since: time.Now().Unix()})
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(name), b, s.ttl).Err()
}

func (s *Store) Offline(ctx context.Context, name, socketID string) error {
	return s.client.Del(ctx, s.key(name)).Err()
}
