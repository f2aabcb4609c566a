package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"podcastr/model"

	"github.com/go-redis/redis/v8"
)

// ErrCacheMiss 缓存中没有对应的键
var ErrCacheMiss = errors.New("cache miss")

// EpisodeCache 使用 Redis 字符串保存剧集 JSON，过期时间即重新验证间隔
type EpisodeCache struct {
	client *redis.Client
}

// NewEpisodeCache 创建剧集缓存
func NewEpisodeCache(client *redis.Client) *EpisodeCache {
	return &EpisodeCache{client: client}
}

// LatestKey 首页列表的键
func LatestKey(limit int) string {
	return fmt.Sprintf("episodes:latest:%d", limit)
}

// EpisodeKey 单集详情的键
func EpisodeKey(id string) string {
	return fmt.Sprintf("episodes:item:%s", id)
}

// GetLatest 读取首页列表
func (c *EpisodeCache) GetLatest(ctx context.Context, limit int) ([]model.Episode, error) {
	var list []model.Episode
	if err := c.getJSON(ctx, LatestKey(limit), &list); err != nil {
		return nil, err
	}
	return list, nil
}

// SetLatest 写入首页列表
func (c *EpisodeCache) SetLatest(ctx context.Context, limit int, list []model.Episode, ttl time.Duration) error {
	return c.setJSON(ctx, LatestKey(limit), list, ttl)
}

// GetEpisode 读取单集
func (c *EpisodeCache) GetEpisode(ctx context.Context, id string) (model.Episode, error) {
	var ep model.Episode
	if err := c.getJSON(ctx, EpisodeKey(id), &ep); err != nil {
		return model.Episode{}, err
	}
	return ep, nil
}

// SetEpisode 写入单集
func (c *EpisodeCache) SetEpisode(ctx context.Context, episode model.Episode, ttl time.Duration) error {
	return c.setJSON(ctx, EpisodeKey(episode.ID), episode, ttl)
}

// Invalidate 删除首页列表和指定剧集的缓存
func (c *EpisodeCache) Invalidate(ctx context.Context, limit int, ids ...string) error {
	keys := []string{LatestKey(limit)}
	for _, id := range ids {
		keys = append(keys, EpisodeKey(id))
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate episode cache: %w", err)
	}
	return nil
}

func (c *EpisodeCache) getJSON(ctx context.Context, key string, out interface{}) error {
	if c.client == nil {
		return fmt.Errorf("Redis client not initialized")
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return ErrCacheMiss
		}
		return fmt.Errorf("failed to get %s: %w", key, err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return nil
}

func (c *EpisodeCache) setJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c.client == nil {
		return fmt.Errorf("Redis client not initialized")
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}
