package episodes

import (
	"fmt"
	"strings"
	"time"

	"podcastr/model"

	"github.com/goodsign/monday"
)

// 页面使用巴西葡萄牙语
const locale = monday.LocalePtBR

var publishedAtLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// FormatDuration 将秒数格式化为 HH:MM:SS
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
}

// ParsePublishedAt 解析 ISO 日期时间，没有时区时按 UTC 处理
func ParsePublishedAt(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range publishedAtLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized published_at %q", value)
}

// FormatPublishedAt 形如 "8 jan 21"
func FormatPublishedAt(t time.Time) string {
	return monday.Format(t, "2 Jan 06", locale)
}

// FormatToday 页头日期，形如 "ter, 19 outubro"
func FormatToday(t time.Time) string {
	return monday.Format(t, "Mon, 2 January", locale)
}

// ToEpisode 将接口记录转换为展示用的剧集
func ToEpisode(raw model.APIEpisode) (model.Episode, error) {
	published, err := ParsePublishedAt(raw.PublishedAt)
	if err != nil {
		return model.Episode{}, err
	}

	duration := int(raw.File.Duration)
	return model.Episode{
		ID:               raw.ID,
		Title:            raw.Title,
		Thumbnail:        raw.Thumbnail,
		Members:          raw.Members,
		Duration:         duration,
		DurationAsString: FormatDuration(duration),
		PublishedAt:      FormatPublishedAt(published),
		Description:      raw.Description,
		URL:              raw.File.URL,
	}, nil
}

// Split 首页布局：前两集为最新发布，其余放在列表中
func Split(list []model.Episode) (latest, rest []model.Episode) {
	n := LatestCount
	if len(list) < n {
		n = len(list)
	}
	return list[:n], list[n:]
}

// LatestCount 首页"最新发布"区块的剧集数
const LatestCount = 2
