package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"
)

var (
	// ErrClaimed is returned when another host already holds the conversation.
	ErrClaimed = errors.New("conversation is hosted elsewhere")
)

// ReleaseFunc gives a claim up. It is safe to call more than once.
type ReleaseFunc func(ctx context.Context) error

const (
	refreshScript = `
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("pexpire", KEYS[1], ARGV[2])
		else
			return 0
		end
	`
	releaseScript = `
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("del", KEYS[1])
		else
			return 0
		end
	`
)

// Claimer makes sure a conversation is hosted by a single process.
type Claimer struct {
	client *backend.Client
	prefix string
}

// NewClaimer creates a Claimer. Keys are prefix + "claim:" + conversation id.
func NewClaimer(client *backend.Client, prefix string) *Claimer {
	return &Claimer{
		client: client,
		prefix: prefix,
	}
}

func (c *Claimer) key(conversationID string) string {
	return c.prefix + "claim:" + conversationID
}

// Claim takes the conversation with SET NX PX and keeps the claim alive
// every ttl/2 until released or ctx is done. It does not wait for another
// holder: a held claim fails with ErrClaimed.
func (c *Claimer) Claim(ctx context.Context, conversationID string, ttl time.Duration) (ReleaseFunc, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("invalid claim ttl %s", ttl)
	}
	key := c.key(conversationID)
	token := uuid.NewString()

	ok, err := c.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis error claiming conversation: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrClaimed, conversationID)
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(ttl / 2)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			case <-ticker.C:
				_ = c.client.Eval(ctx, refreshScript, []string{key}, token, ttl.Milliseconds()).Err()
			}
		}
	}()

	var once sync.Once
	return func(ctx context.Context) error {
		var err error
		once.Do(func() {
			close(stop)
			wg.Wait()
			err = c.client.Eval(ctx, releaseScript, []string{key}, token).Err()
		})
		return err
	}, nil
}
