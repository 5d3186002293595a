package main

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// taskCache caches each user's full task list. A nil, nil return from
// getTasks is a miss.
type taskCache interface {
	getTasks(userID string) ([]task, error)
	setTasks(userID string, tasks []task) error
	invalidate(userID string) error
}

type redisTaskCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func newRedisTaskCache(rdb *redis.Client, ttl time.Duration) *redisTaskCache {
	return &redisTaskCache{rdb: rdb, ttl: ttl}
}

func taskListKey(userID string) string {
	return "tasks:" + userID
}

func (c *redisTaskCache) getTasks(userID string) ([]task, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	val, err := c.rdb.Get(ctx, taskListKey(userID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var tasks []task
	if err := json.Unmarshal([]byte(val), &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *redisTaskCache) setTasks(userID string, tasks []task) error {
	data, err := json.Marshal(tasks)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	return c.rdb.Set(ctx, taskListKey(userID), data, c.ttl).Err()
}

func (c *redisTaskCache) invalidate(userID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	return c.rdb.Del(ctx, taskListKey(userID)).Err()
}

// cachedStore fronts a store with a read-through task-list cache. The inner
// store stays authoritative: every task mutation goes to it first and then
// drops the owner's cached list, so a stale mirror can never serve writes.
type cachedStore struct {
	store
	cache taskCache
}

func newCachedStore(inner store, cache taskCache) *cachedStore {
	return &cachedStore{store: inner, cache: cache}
}

func (s *cachedStore) listTasks(userID string) ([]task, error) {
	if tasks, err := s.cache.getTasks(userID); err == nil && tasks != nil {
		return tasks, nil
	}

	tasks, err := s.store.listTasks(userID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.setTasks(userID, tasks); err != nil {
		log.Println(err)
	}
	return tasks, nil
}

func (s *cachedStore) createTask(t *task) error {
	if err := s.store.createTask(t); err != nil {
		return err
	}
	if err := s.cache.invalidate(t.UserID); err != nil {
		log.Println(err)
	}
	return nil
}

func (s *cachedStore) updateTask(userID, id string, patch taskPatch) (*task, error) {
	t, err := s.store.updateTask(userID, id, patch)
	if err != nil {
		return nil, err
	}
	if err := s.cache.invalidate(userID); err != nil {
		log.Println(err)
	}
	return t, nil
}

func (s *cachedStore) deleteTask(userID, id string) error {
	if err := s.store.deleteTask(userID, id); err != nil {
		return err
	}
	if err := s.cache.invalidate(userID); err != nil {
		log.Println(err)
	}
	return nil
}
