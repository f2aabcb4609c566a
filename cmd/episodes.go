package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"podcastr/cache"
	"podcastr/core/episodes"
	"podcastr/logger"
	"podcastr/model"

	"github.com/spf13/cobra"
)

var (
	episodeLimit   int
	episodeID      string
	episodeRefresh bool
)

var episodesCmd = &cobra.Command{
	Use:   "episodes",
	Short: "查看剧集接口数据",
	Long:  `从剧集接口拉取最新发布的剧集，或者用 --id 查看单集详情。--refresh 会同时清除 Redis 中的缓存。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := episodes.NewClient(cfg.EpisodesAPIURL, cfg.EpisodesAPITimeout)
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		if episodeLimit <= 0 {
			episodeLimit = cfg.EpisodesLimit
		}

		var ids []string
		if episodeID != "" {
			raw, err := client.Get(ctx, episodeID)
			if err != nil {
				return err
			}
			ep, err := episodes.ToEpisode(*raw)
			if err != nil {
				return err
			}
			printEpisode(ep)
			ids = append(ids, ep.ID)
		} else {
			list, err := client.ListLatest(ctx, episodeLimit)
			if err != nil {
				return err
			}
			converted := make([]model.Episode, 0, len(list))
			for _, raw := range list {
				ep, err := episodes.ToEpisode(raw)
				if err != nil {
					logger.Warn("skipping invalid episode", logger.String("id", raw.ID), logger.ErrorField(err))
					continue
				}
				converted = append(converted, ep)
				ids = append(ids, ep.ID)
			}
			printEpisodeTable(converted)
		}

		if episodeRefresh {
			return invalidateEpisodeCache(ctx, ids)
		}
		return nil
	},
}

func printEpisode(ep model.Episode) {
	fmt.Printf("ID:       %s\n", ep.ID)
	fmt.Printf("标题:     %s\n", ep.Title)
	fmt.Printf("成员:     %s\n", ep.Members)
	fmt.Printf("发布日期: %s\n", ep.PublishedAt)
	fmt.Printf("时长:     %s\n", ep.DurationAsString)
	fmt.Printf("播放地址: %s\n", ep.URL)
}

func printEpisodeTable(list []model.Episode) {
	if len(list) == 0 {
		fmt.Println("没有找到剧集")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tID\t标题\t日期\t时长")
	for i, ep := range list {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", i+1, ep.ID, ep.Title, ep.PublishedAt, ep.DurationAsString)
	}
	w.Flush()
}

func invalidateEpisodeCache(ctx context.Context, ids []string) error {
	if !cfg.RedisEnabled() {
		fmt.Println("未配置Redis，跳过缓存清理")
		return nil
	}

	if err := cache.ConnectRedis(cfg); err != nil {
		return err
	}
	defer cache.CloseRedis()

	// 服务端按 EPISODES_LIMIT 缓存列表
	if err := cache.NewEpisodeCache(cache.RedisClient).Invalidate(ctx, cfg.EpisodesLimit, ids...); err != nil {
		return fmt.Errorf("failed to invalidate cache: %w", err)
	}
	fmt.Printf("已清除 %d 集的缓存\n", len(ids))
	return nil
}

func init() {
	episodesCmd.Flags().IntVarP(&episodeLimit, "limit", "l", 0, "拉取的剧集数量，默认使用 EPISODES_LIMIT")
	episodesCmd.Flags().StringVar(&episodeID, "id", "", "查看指定剧集")
	episodesCmd.Flags().BoolVar(&episodeRefresh, "refresh", false, "清除Redis中的剧集缓存")
	rootCmd.AddCommand(episodesCmd)
}
