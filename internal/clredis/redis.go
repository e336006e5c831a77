package clredis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const dayCountersTTL = 31 * 24 * time.Hour

// New retourne nil si aucune adresse n'est configurée
func New(addr string, db int) *redis.Client {
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
}

// Store de captcha compatible base64Captcha
type RedisStore struct {
	client     *redis.Client
	expiration time.Duration
}

func NewCaptchaStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client:     client,
		expiration: 5 * time.Minute,
	}
}

func (r *RedisStore) Set(id string, value string) error {
	ctx := context.Background()
	return r.client.Set(ctx, "captcha:"+id, value, r.expiration).Err()
}

func (r *RedisStore) Get(id string, clear bool) string {
	ctx := context.Background()
	key := "captcha:" + id
	if clear {
		val, _ := r.client.GetDel(ctx, key).Result()
		return val
	}
	val, _ := r.client.Get(ctx, key).Result()
	return val
}

func (r *RedisStore) Verify(id, answer string, clear bool) bool {
	v := r.Get(id, clear)
	return v != "" && v == answer
}

// Compteurs du jour, miroir temps réel de daily_analytics
type DayCounters struct {
	client *redis.Client
}

func NewDayCounters(client *redis.Client) *DayCounters {
	return &DayCounters{client: client}
}

func dailyKey(date string) string {
	return fmt.Sprintf("analytics:daily:%s", date)
}

func visitorsKey(date string) string {
	return fmt.Sprintf("analytics:visitors:%s", date)
}

// Incr incrémente les champs donnés et marque le visiteur comme vu
func (d *DayCounters) Incr(ctx context.Context, date string, visitorID string, fields ...string) error {
	pipe := d.client.TxPipeline()
	key := dailyKey(date)
	for _, field := range fields {
		pipe.HIncrBy(ctx, key, field, 1)
	}
	pipe.Expire(ctx, key, dayCountersTTL)
	if visitorID != "" {
		pipe.SAdd(ctx, visitorsKey(date), visitorID)
		pipe.Expire(ctx, visitorsKey(date), dayCountersTTL)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Day retourne les compteurs et le nombre de visiteurs uniques du jour
func (d *DayCounters) Day(ctx context.Context, date string) (map[string]int64, int64, error) {
	raw, err := d.client.HGetAll(ctx, dailyKey(date)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, 0, err
	}

	counters := make(map[string]int64, len(raw))
	for field, value := range raw {
		var n int64
		if _, err := fmt.Sscan(value, &n); err == nil {
			counters[field] = n
		}
	}

	visitors, err := d.client.SCard(ctx, visitorsKey(date)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, 0, err
	}
	return counters, visitors, nil
}
