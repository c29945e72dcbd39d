package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/99minutos/link-dashboard/internal/core/domain"
)

const markerPrefix = "migration:"

// completeScript: KEYS[1]=migration:<slug>, ARGV[1]=token.
// Deletes the marker only while token holds it.
var completeScript = redis.NewScript(`
local raw = redis.call('GET', KEYS[1])
if not raw then return 0 end
local m = cjson.decode(raw)
if (m.token or '') ~= ARGV[1] then return 0 end
return redis.call('DEL', KEYS[1])
`)

// takeoverScript: KEYS[1]=migration:<slug>, ARGV[1]=token, ARGV[2]=new token.
// Returns 1 when the marker now carries the new token, 0 otherwise.
var takeoverScript = redis.NewScript(`
local raw = redis.call('GET', KEYS[1])
if not raw then return 0 end
local m = cjson.decode(raw)
if (m.token or '') ~= ARGV[1] then return 0 end
m.token = ARGV[2]
redis.call('SET', KEYS[1], cjson.encode(m))
return 1
`)

// MigrationMarkers stores pending renames, one key per project.
// Key format: migration:<slug>
//
// Markers never expire; only a completed rename or the repair pass removes them.
type MigrationMarkers struct {
	client *redis.Client
}

// NewMigrationMarkers creates a MigrationMarkers wrapping the given Redis client.
func NewMigrationMarkers(client *redis.Client) *MigrationMarkers {
	return &MigrationMarkers{client: client}
}

// Begin stores the marker with SET NX; a marker already present means another
// rename of the same project is running or awaiting repair.
func (m *MigrationMarkers) Begin(ctx context.Context, mig domain.Migration) error {
	payload, err := json.Marshal(mig)
	if err != nil {
		return fmt.Errorf("encode migration: %w", err)
	}
	ok, err := m.client.SetNX(ctx, m.key(mig.Slug), payload, 0).Result()
	if err != nil {
		return unavailable("begin migration", err)
	}
	if !ok {
		return domain.ErrRenameInProgress
	}
	return nil
}

// Holds reads the marker and compares its token.
func (m *MigrationMarkers) Holds(ctx context.Context, slug, token string) (bool, error) {
	raw, err := m.client.Get(ctx, m.key(slug)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, unavailable("read migration", err)
	}
	var mig domain.Migration
	if err := json.Unmarshal(raw, &mig); err != nil {
		return false, fmt.Errorf("decode migration %s: %w", slug, err)
	}
	return mig.Token == token, nil
}

func (m *MigrationMarkers) Takeover(ctx context.Context, slug, token, newToken string) error {
	res, err := takeoverScript.Run(ctx, m.client, []string{m.key(slug)}, token, newToken).Int()
	if err != nil {
		return unavailable("take over migration", err)
	}
	if res != 1 {
		return domain.ErrConcurrentUpdate
	}
	return nil
}

func (m *MigrationMarkers) Complete(ctx context.Context, slug, token string) error {
	if err := completeScript.Run(ctx, m.client, []string{m.key(slug)}, token).Err(); err != nil {
		return unavailable("complete migration", err)
	}
	return nil
}

// Pending scans every marker. Markers that vanish between SCAN and GET were
// completed in the meantime and are skipped.
func (m *MigrationMarkers) Pending(ctx context.Context) ([]domain.Migration, error) {
	var out []domain.Migration

	iter := m.client.Scan(ctx, 0, markerPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		raw, err := m.client.Get(ctx, iter.Val()).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, unavailable("read migration", err)
		}

		var mig domain.Migration
		if err := json.Unmarshal(raw, &mig); err != nil {
			return nil, fmt.Errorf("decode migration %s: %w", iter.Val(), err)
		}
		out = append(out, mig)
	}
	if err := iter.Err(); err != nil {
		return nil, unavailable("scan migrations", err)
	}
	return out, nil
}

func (m *MigrationMarkers) key(slug string) string {
	return fmt.Sprintf("%s%s", markerPrefix, slug)
}
