package episodes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"podcastr/cache"
	"podcastr/logger"
	"podcastr/model"
)

// Cache 剧集缓存，未命中时返回 cache.ErrCacheMiss
type Cache interface {
	GetLatest(ctx context.Context, limit int) ([]model.Episode, error)
	SetLatest(ctx context.Context, limit int, list []model.Episode, ttl time.Duration) error
	GetEpisode(ctx context.Context, id string) (model.Episode, error)
	SetEpisode(ctx context.Context, episode model.Episode, ttl time.Duration) error
}

// Source 剧集数据来源，*Client 实现了它
type Source interface {
	ListLatest(ctx context.Context, limit int) ([]model.APIEpisode, error)
	Get(ctx context.Context, id string) (*model.APIEpisode, error)
}

// Service 带缓存的剧集读取服务
type Service struct {
	source            Source
	cache             Cache // 可以为 nil
	limit             int
	listRevalidate    time.Duration
	episodeRevalidate time.Duration
}

// ServiceConfig Service 的参数
type ServiceConfig struct {
	Limit             int
	ListRevalidate    time.Duration
	EpisodeRevalidate time.Duration
}

// NewService 创建剧集服务，c 为 nil 时不使用缓存
func NewService(source Source, c Cache, cfg ServiceConfig) *Service {
	return &Service{
		source:            source,
		cache:             c,
		limit:             cfg.Limit,
		listRevalidate:    cfg.ListRevalidate,
		episodeRevalidate: cfg.EpisodeRevalidate,
	}
}

// Latest 获取首页剧集列表
func (s *Service) Latest(ctx context.Context) ([]model.Episode, error) {
	if s.cache != nil {
		list, err := s.cache.GetLatest(ctx, s.limit)
		if err == nil {
			return list, nil
		}
		s.logCacheError("latest", err)
	}

	raw, err := s.source.ListLatest(ctx, s.limit)
	if err != nil {
		return nil, err
	}

	list := make([]model.Episode, 0, len(raw))
	for _, r := range raw {
		ep, err := ToEpisode(r)
		if err != nil {
			return nil, fmt.Errorf("%w: episode %s: %v", ErrUnavailable, r.ID, err)
		}
		list = append(list, ep)
	}

	if s.cache != nil {
		if err := s.cache.SetLatest(ctx, s.limit, list, s.listRevalidate); err != nil {
			logger.Warn("failed to cache latest episodes", logger.ErrorField(err))
		}
	}
	return list, nil
}

// Episode 获取单集详情
func (s *Service) Episode(ctx context.Context, id string) (model.Episode, error) {
	if s.cache != nil {
		ep, err := s.cache.GetEpisode(ctx, id)
		if err == nil {
			return ep, nil
		}
		s.logCacheError("episode", err)
	}

	raw, err := s.source.Get(ctx, id)
	if err != nil {
		return model.Episode{}, err
	}

	ep, err := ToEpisode(*raw)
	if err != nil {
		return model.Episode{}, fmt.Errorf("%w: episode %s: %v", ErrUnavailable, id, err)
	}

	if s.cache != nil {
		if err := s.cache.SetEpisode(ctx, ep, s.episodeRevalidate); err != nil {
			logger.Warn("failed to cache episode", logger.String("id", id), logger.ErrorField(err))
		}
	}
	return ep, nil
}

func (s *Service) logCacheError(key string, err error) {
	if errors.Is(err, cache.ErrCacheMiss) {
		logger.Debug("episode cache miss", logger.String("key", key))
		return
	}
	logger.Warn("episode cache read failed, falling back to API", logger.String("key", key), logger.ErrorField(err))
}
