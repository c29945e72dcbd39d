package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/99minutos/link-dashboard/internal/core/domain"
)

// Key layout:
//
//	links:<domain>  hash   link key -> JSON storedLink
//	domains         hash   domain   -> owning project slug
//
// The domain a link belongs to is the hash it lives in, so a move never has
// to rewrite the stored values.
const domainIndexKey = "domains"

// claimScript: KEYS[1]=domains, ARGV[1]=slug, ARGV[2]=domain.
// Returns 1 when newly claimed, 0 when already held by slug, -1 on conflict.
var claimScript = redis.NewScript(`
local owner = redis.call('HGET', KEYS[1], ARGV[2])
if not owner then
  redis.call('HSET', KEYS[1], ARGV[2], ARGV[1])
  return 1
end
if owner == ARGV[1] then return 0 end
return -1
`)

// releaseScript: KEYS[1]=domains, ARGV[1]=slug, ARGV[2]=domain.
var releaseScript = redis.NewScript(`
if redis.call('HGET', KEYS[1], ARGV[2]) == ARGV[1] then
  return redis.call('HDEL', KEYS[1], ARGV[2])
end
return 0
`)

// moveScript: KEYS[1]=domains, KEYS[2]=links:<from>, KEYS[3]=links:<to>,
// ARGV[1]=slug, ARGV[2]=from, ARGV[3]=to.
// Returns 1 on success, -1 when <to> belongs to another slug, -2 when <from>
// is not held by slug.
var moveScript = redis.NewScript(`
local target = redis.call('HGET', KEYS[1], ARGV[3])
if target and target ~= ARGV[1] then return -1 end
if redis.call('HGET', KEYS[1], ARGV[2]) ~= ARGV[1] then return -2 end
if redis.call('EXISTS', KEYS[2]) == 1 then
  if redis.call('EXISTS', KEYS[3]) == 1 then
    local kv = redis.call('HGETALL', KEYS[2])
    for i = 1, #kv, 2 do
      redis.call('HSETNX', KEYS[3], kv[i], kv[i + 1])
    end
    redis.call('DEL', KEYS[2])
  else
    redis.call('RENAME', KEYS[2], KEYS[3])
  end
end
redis.call('HDEL', KEYS[1], ARGV[2])
redis.call('HSET', KEYS[1], ARGV[3], ARGV[1])
return 1
`)

// LinkStore implements ports.LinkStore on Redis. Every mutation of the domain
// index runs as a Lua script, so claims, moves and existence checks are
// linearizable with each other.
type LinkStore struct {
	client *redis.Client
}

// NewLinkStore creates a LinkStore wrapping the given Redis client.
func NewLinkStore(client *redis.Client) *LinkStore {
	return &LinkStore{client: client}
}

// Count is HLEN on the domain's partition: O(1).
func (s *LinkStore) Count(ctx context.Context, d string) (int64, error) {
	n, err := s.client.HLen(ctx, linksKey(d)).Result()
	if err != nil {
		return 0, unavailable("count", err)
	}
	return n, nil
}

// RandomKey samples one field with HRANDFIELD.
func (s *LinkStore) RandomKey(ctx context.Context, d string) (string, bool, error) {
	keys, err := s.client.HRandField(ctx, linksKey(d), 1).Result()
	if err != nil {
		return "", false, unavailable("random key", err)
	}
	if len(keys) == 0 {
		return "", false, nil
	}
	return keys[0], true, nil
}

func (s *LinkStore) Exists(ctx context.Context, d string) (bool, error) {
	ok, err := s.client.HExists(ctx, domainIndexKey, d).Result()
	if err != nil {
		return false, unavailable("exists", err)
	}
	return ok, nil
}

func (s *LinkStore) ClaimDomain(ctx context.Context, slug, d string) (bool, error) {
	res, err := claimScript.Run(ctx, s.client, []string{domainIndexKey}, slug, d).Int()
	if err != nil {
		return false, unavailable("claim domain", err)
	}
	switch res {
	case 1:
		return true, nil
	case 0:
		return false, nil
	default:
		return false, domain.ErrDomainConflict
	}
}

func (s *LinkStore) ReleaseDomain(ctx context.Context, slug, d string) error {
	if err := releaseScript.Run(ctx, s.client, []string{domainIndexKey}, slug, d).Err(); err != nil {
		return unavailable("release domain", err)
	}
	return nil
}

func (s *LinkStore) MoveDomain(ctx context.Context, slug, from, to string) error {
	if from == to {
		return nil
	}
	keys := []string{domainIndexKey, linksKey(from), linksKey(to)}
	res, err := moveScript.Run(ctx, s.client, keys, slug, from, to).Int()
	if err != nil {
		return unavailable("move domain", err)
	}
	switch res {
	case -1:
		return domain.ErrDomainConflict
	case -2:
		return domain.ErrConcurrentUpdate
	}
	return nil
}

// storedLink is the hash value of a link.
type storedLink struct {
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *LinkStore) PutLink(ctx context.Context, l domain.Link) error {
	payload, err := json.Marshal(storedLink{URL: l.URL, CreatedAt: l.CreatedAt})
	if err != nil {
		return fmt.Errorf("encode link: %w", err)
	}
	if err := s.client.HSet(ctx, linksKey(l.ProjectDomain), l.Key, payload).Err(); err != nil {
		return unavailable("put link", err)
	}
	return nil
}

func (s *LinkStore) GetLink(ctx context.Context, d, key string) (domain.Link, bool, error) {
	raw, err := s.client.HGet(ctx, linksKey(d), key).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Link{}, false, nil
	}
	if err != nil {
		return domain.Link{}, false, unavailable("get link", err)
	}

	var stored storedLink
	if err := json.Unmarshal(raw, &stored); err != nil {
		return domain.Link{}, false, fmt.Errorf("decode link %s/%s: %w", d, key, err)
	}
	return domain.Link{Key: key, ProjectDomain: d, URL: stored.URL, CreatedAt: stored.CreatedAt}, true, nil
}

func (s *LinkStore) DeleteLink(ctx context.Context, d, key string) error {
	if err := s.client.HDel(ctx, linksKey(d), key).Err(); err != nil {
		return unavailable("delete link", err)
	}
	return nil
}

func linksKey(d string) string {
	return "links:" + d
}

// unavailable tags a backend failure so callers can match domain.ErrStoreUnavailable
// while keeping the driver error in the chain.
func unavailable(op string, err error) error {
	if errors.Is(err, domain.ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("redis %s: %w: %w", op, domain.ErrStoreUnavailable, err)
}
