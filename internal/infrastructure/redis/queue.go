package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// pollTimeout bounds each BLPOP so Pop notices cancellation promptly.
const pollTimeout = time.Second

type RedisQueue struct {
	client    *redis.Client
	queueName string
}

func NewRedisQueue(client *redis.Client, queueName string) *RedisQueue {
	if queueName == "" {
		queueName = "teamflow:runs:pending"
	}
	return &RedisQueue{
		client:    client,
		queueName: queueName,
	}
}

// Push adds a run ID to the end of the list
func (q *RedisQueue) Push(ctx context.Context, runID string) error {
	return q.client.RPush(ctx, q.queueName, runID).Err()
}

// Pop waits for a run ID and removes it from the front of the list
func (q *RedisQueue) Pop(ctx context.Context) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		result, err := q.client.BLPop(ctx, pollTimeout, q.queueName).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", ctxErr
			}
			return "", err
		}
		// BLPop returns a slice: [QueueName, Element]
		return result[1], nil
	}
}

func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.queueName).Result()
}
