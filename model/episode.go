package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Episode 播客剧集，拉取后不再修改
type Episode struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Thumbnail        string `json:"thumbnail"`
	Members          string `json:"members"`
	Duration         int    `json:"duration"`         // 时长（秒）
	DurationAsString string `json:"durationAsString"` // HH:MM:SS
	PublishedAt      string `json:"publishedAt"`      // 展示用日期
	Description      string `json:"description"`      // HTML，原样渲染
	URL              string `json:"url"`              // 播放地址
}

// APIFile 剧集音频文件信息
type APIFile struct {
	URL      string  `json:"url"`
	Type     string  `json:"type"`
	Duration Seconds `json:"duration"`
}

// APIEpisode /episodes 接口返回的原始记录
type APIEpisode struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Members     string  `json:"members"`
	PublishedAt string  `json:"published_at"` // ISO 日期时间，可能不带时区
	Thumbnail   string  `json:"thumbnail"`
	Description string  `json:"description"`
	File        APIFile `json:"file"`
}

// Seconds 接口中的时长可能是数字也可能是数字字符串
type Seconds int

// UnmarshalJSON 同时接受 123 和 "123"
func (s *Seconds) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = 0
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		data = []byte(str)
	}

	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(data), err)
	}
	if f < 0 {
		return fmt.Errorf("negative duration %q", string(data))
	}
	*s = Seconds(int(f))
	return nil
}
