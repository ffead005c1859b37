package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"beautybook/internal/model"
)

const keyPrefix = "beautybook:"

// Cached keeps professional and treatment documents in redis. Appointments
// are never cached: conflict checks must see the current day.
//
// Every cached key has a generation counter bumped on invalidation. A reader
// notes the generation before going to the store and only fills the cache if
// it is unchanged, so a write racing a miss never leaves the old document
// behind.
type Cached struct {
	Store
	redis  *redis.Client
	ttl    time.Duration
	logger *zerolog.Logger
}

func NewCached(s Store, client *redis.Client, ttl time.Duration, logger *zerolog.Logger) *Cached {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Cached{Store: s, redis: client, ttl: ttl, logger: logger}
}

func professionalKey(id string) string { return keyPrefix + "professional:" + id }
func treatmentKey(id string) string    { return keyPrefix + "treatment:" + id }
func generationKey(key string) string  { return key + ":gen" }

var fillScript = redis.NewScript(`
local gen = redis.call("get", KEYS[2]) or "0"
if gen ~= ARGV[1] then
	return 0
end
redis.call("set", KEYS[1], ARGV[2], "PX", ARGV[3])
return 1
`)

const (
	professionalsKey = keyPrefix + "professionals"
	treatmentsKey    = keyPrefix + "treatments"
)

func (c *Cached) GetProfessional(ctx context.Context, id string) (*model.Professional, error) {
	key := professionalKey(id)
	var p model.Professional
	if c.readCache(ctx, key, &p) {
		return &p, nil
	}
	gen := c.generation(ctx, key)
	got, err := c.Store.GetProfessional(ctx, id)
	if err != nil {
		return nil, err
	}
	c.writeCache(ctx, key, gen, got)
	return got, nil
}

func (c *Cached) ListProfessionals(ctx context.Context) ([]model.Professional, error) {
	key := professionalsKey
	var list []model.Professional
	if c.readCache(ctx, key, &list) {
		return list, nil
	}
	gen := c.generation(ctx, key)
	got, err := c.Store.ListProfessionals(ctx)
	if err != nil {
		return nil, err
	}
	c.writeCache(ctx, key, gen, got)
	return got, nil
}

// GetProfessionalUncached reads straight from the wrapped store.
func (c *Cached) GetProfessionalUncached(ctx context.Context, id string) (*model.Professional, error) {
	return c.Store.GetProfessional(ctx, id)
}

func (c *Cached) SaveProfessional(ctx context.Context, p *model.Professional) error {
	if err := c.Store.SaveProfessional(ctx, p); err != nil {
		return err
	}
	c.invalidate(ctx, professionalKey(p.ID), professionalsKey)
	return nil
}

func (c *Cached) UpdateWeeklySchedule(ctx context.Context, professionalID string, ws model.WeeklySchedule) error {
	if err := c.Store.UpdateWeeklySchedule(ctx, professionalID, ws); err != nil {
		return err
	}
	c.invalidate(ctx, professionalKey(professionalID), professionalsKey)
	return nil
}

func (c *Cached) UpdateExceptions(ctx context.Context, professionalID string, list []model.ScheduleException) error {
	if err := c.Store.UpdateExceptions(ctx, professionalID, list); err != nil {
		return err
	}
	c.invalidate(ctx, professionalKey(professionalID), professionalsKey)
	return nil
}

func (c *Cached) GetTreatment(ctx context.Context, id string) (*model.Treatment, error) {
	key := treatmentKey(id)
	var t model.Treatment
	if c.readCache(ctx, key, &t) {
		return &t, nil
	}
	gen := c.generation(ctx, key)
	got, err := c.Store.GetTreatment(ctx, id)
	if err != nil {
		return nil, err
	}
	c.writeCache(ctx, key, gen, got)
	return got, nil
}

func (c *Cached) ListTreatments(ctx context.Context) ([]model.Treatment, error) {
	key := treatmentsKey
	var list []model.Treatment
	if c.readCache(ctx, key, &list) {
		return list, nil
	}
	gen := c.generation(ctx, key)
	got, err := c.Store.ListTreatments(ctx)
	if err != nil {
		return nil, err
	}
	c.writeCache(ctx, key, gen, got)
	return got, nil
}

func (c *Cached) SaveTreatment(ctx context.Context, t *model.Treatment) error {
	if err := c.Store.SaveTreatment(ctx, t); err != nil {
		return err
	}
	c.invalidate(ctx, treatmentKey(t.ID), treatmentsKey)
	return nil
}

func (c *Cached) Ping(ctx context.Context) error {
	if err := c.Store.Ping(ctx); err != nil {
		return err
	}
	if c.redis == nil {
		return nil
	}
	return c.redis.Ping(ctx).Err()
}

func (c *Cached) enabled() bool {
	return c.redis != nil && c.ttl > 0
}

func (c *Cached) readCache(ctx context.Context, key string, out any) bool {
	if !c.enabled() {
		return false
	}
	val, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	if err := json.Unmarshal(val, out); err != nil {
		return false
	}
	return true
}

// generation returns the current generation of key, or "" when it cannot be
// read. An empty generation disables the fill that follows.
func (c *Cached) generation(ctx context.Context, key string) string {
	if !c.enabled() {
		return ""
	}
	gen, err := c.redis.Get(ctx, generationKey(key)).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return "0"
	case err != nil:
		return ""
	}
	return gen
}

func (c *Cached) writeCache(ctx context.Context, key, gen string, val any) {
	if !c.enabled() || gen == "" {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	keys := []string{key, generationKey(key)}
	if err := fillScript.Run(ctx, c.redis, keys, gen, data, c.ttl.Milliseconds()).Err(); err != nil {
		c.logger.Debug().Err(err).Str("key", key).Msg("cache write failed")
	}
}

func (c *Cached) invalidate(ctx context.Context, keys ...string) {
	if c.redis == nil {
		return
	}
	_, err := c.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, key := range keys {
			pipe.Incr(ctx, generationKey(key))
		}
		pipe.Del(ctx, keys...)
		return nil
	})
	if err != nil {
		c.logger.Warn().Err(err).Strs("keys", keys).Msg("cache invalidation failed")
	}
}
