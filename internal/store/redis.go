package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/bwerff/ExcelAiRate-sub000/internal/config"
	"github.com/bwerff/ExcelAiRate-sub000/pkg/api"
)

// RedisStore keeps workflow definitions in Redis as JSON values, with a
// set of known IDs alongside for listing
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects a workflow store to the configured Redis
func NewRedisStore(cfg *config.StoreConfig) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &RedisStore{
		client: client,
		prefix: cfg.Prefix,
	}
}

// Save stores the workflow definition, overwriting any previous version
func (s *RedisStore) Save(ctx context.Context, wf *api.Workflow) error {
	if wf.ID == "" {
		return ErrMissingID
	}
	data, err := json.Marshal(wf)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.workflowKey(wf.ID), data, 0)
	pipe.SAdd(ctx, s.indexKey(), string(wf.ID))
	_, err = pipe.Exec(ctx)
	return err
}

// Load retrieves a workflow definition by ID
func (s *RedisStore) Load(
	ctx context.Context, id api.ID,
) (*api.Workflow, error) {
	data, err := s.client.Get(ctx, s.workflowKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrWorkflowNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	var wf api.Workflow
	if err := json.Unmarshal(data, &wf); err != nil {
		return nil, err
	}
	return &wf, nil
}

// List retrieves all stored workflow definitions. Index entries whose
// value has since expired or been removed are skipped
func (s *RedisStore) List(ctx context.Context) ([]*api.Workflow, error) {
	ids, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, err
	}

	res := make([]*api.Workflow, 0, len(ids))
	for _, id := range ids {
		wf, err := s.Load(ctx, api.ID(id))
		if errors.Is(err, ErrWorkflowNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		res = append(res, wf)
	}
	return res, nil
}

// Delete removes a stored workflow definition
func (s *RedisStore) Delete(ctx context.Context, id api.ID) error {
	pipe := s.client.TxPipeline()
	del := pipe.Del(ctx, s.workflowKey(id))
	pipe.SRem(ctx, s.indexKey(), string(id))
	if _, err := pipe.Exec(ctx); err != nil {
		return err
	}
	if del.Val() == 0 {
		return fmt.Errorf("%w: %s", ErrWorkflowNotFound, id)
	}
	return nil
}

// Ping verifies the Redis connection
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) workflowKey(id api.ID) string {
	return s.prefix + ":workflow:" + string(id)
}

func (s *RedisStore) indexKey() string {
	return s.prefix + ":workflows"
}
