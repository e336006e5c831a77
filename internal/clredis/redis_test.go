package clredis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	assert.Nil(t, New("", 0))

	client := New("127.0.0.1:6379", 2)
	if assert.NotNil(t, client) {
		assert.Equal(t, 2, client.Options().DB)
		client.Close()
	}
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "analytics:daily:2025-01-31", dailyKey("2025-01-31"))
	assert.Equal(t, "analytics:visitors:2025-01-31", visitorsKey("2025-01-31"))
}

// Sans serveur, le store refuse toute réponse au lieu de paniquer
func TestCaptchaStoreUnreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	store := NewCaptchaStore(client)
	assert.Error(t, store.Set("id", "42"))
	assert.False(t, store.Verify("id", "42", true))
	assert.False(t, store.Verify("id", "", false))

	_, _, err := NewDayCounters(client).Day(context.Background(), "2025-01-31")
	assert.Error(t, err)
}
