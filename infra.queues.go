package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
)

// LoanEventsQueue is the redis list holding pending loan events.
const LoanEventsQueue = "library.loans"

var (
	ErrQueueFull  = errors.New("queue is full")
	ErrQueueEmpty = errors.New("queue is empty")
)

var (
	_ Queuer = (*memoryQueue)(nil) // ensure memoryQueue implements Queuer.
	_ Queuer = (*redisQueue)(nil)  // ensure redisQueue implements Queuer.
)

// Queuer describes a queue of loan events.
type Queuer interface {
	Push(ctx context.Context, event LoanEvent) error
	Pop(ctx context.Context) (LoanEvent, error)
}

// memoryQueue is a bounded in-process queue. Push never blocks.
type memoryQueue struct {
	events chan LoanEvent
}

func NewMemoryQueue(size int) Queuer {
	if size <= 0 {
		size = 1
	}
	return &memoryQueue{events: make(chan LoanEvent, size)}
}

// Push enqueues the event or fails with ErrQueueFull.
func (q *memoryQueue) Push(ctx context.Context, event LoanEvent) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case q.events <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

// Pop waits for the next event or for the context to be done.
func (q *memoryQueue) Pop(ctx context.Context) (LoanEvent, error) {
	select {
	case <-ctx.Done():
		return LoanEvent{}, ctx.Err()
	case event := <-q.events:
		return event, nil
	}
}

// GetRedisClient provides a ready to use redis client.
func GetRedisClient(config *Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", config.Redis.Host, config.Redis.Port),
		DialTimeout:  config.Redis.DialTimeout,
		ReadTimeout:  config.Redis.ReadTimeout,
		WriteTimeout: config.Redis.WriteTimeout,
		PoolSize:     config.Redis.PoolSize,
		PoolTimeout:  config.Redis.PoolTimeout,
		Password:     config.Redis.Password,
		Username:     config.Redis.Username,
		DB:           config.Redis.DatabaseIndex,
	})

	// test connection.
	if pong, err := client.Ping(context.Background()).Result(); pong != "PONG" || err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("test connection failed: %v", err)
	}
	return client, nil
}

// redisQueue represents a queue which implements the Queuer interface.
type redisQueue struct {
	client *redis.Client
	wait   time.Duration
}

func NewRedisQueue(client *redis.Client) Queuer {
	return &redisQueue{client: client, wait: 5 * time.Second}
}

// Push appends the event to the redis list.
func (q *redisQueue) Push(ctx context.Context, event LoanEvent) error {
	eventBytes, err := jsoniter.ConfigFastest.Marshal(event)
	if err != nil {
		return err
	}
	return q.client.RPush(ctx, LoanEventsQueue, eventBytes).Err()
}

// Pop returns the first dequeued event. It gives ErrQueueEmpty when
// nothing arrived within the blocking wait.
func (q *redisQueue) Pop(ctx context.Context) (LoanEvent, error) {
	var event LoanEvent
	infos, err := q.client.BLPop(ctx, q.wait, LoanEventsQueue).Result()
	if errors.Is(err, redis.Nil) {
		return event, ErrQueueEmpty
	}
	if err != nil {
		return event, err
	}
	err = jsoniter.ConfigFastest.Unmarshal([]byte(infos[1]), &event)
	return event, err
}
