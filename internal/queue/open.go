package queue

import (
	"fmt"

	"campusevents/internal/config"
	"campusevents/internal/store"
)

// Open builds the queue selected by cfg.QueueBackend. The returned close
// function releases the underlying connection.
func Open(cfg config.App) (Queue, func() error, error) {
	switch cfg.QueueBackend {
	case "memory":
		return NewInMemory(64), func() error { return nil }, nil
	case "redis", "":
		rdb, err := store.NewRedis(cfg.RedisAddr)
		if err != nil {
			return nil, nil, err
		}
		return NewRedisQueue(rdb.Client, cfg.QueueKey), rdb.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown queue backend %q", cfg.QueueBackend)
	}
}
