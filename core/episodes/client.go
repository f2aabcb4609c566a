package episodes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"podcastr/logger"
	"podcastr/model"
)

var (
	// ErrNotFound 剧集不存在
	ErrNotFound = errors.New("episode not found")
	// ErrUnavailable 剧集数据暂时不可用（网络错误、非 2xx、响应格式错误）
	ErrUnavailable = errors.New("episode data unavailable")
)

// Client 剧集 REST API 客户端
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient 创建新的API客户端
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// BaseURL 返回API基础URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListLatest 按发布时间倒序获取最新的 limit 集
func (c *Client) ListLatest(ctx context.Context, limit int) ([]model.APIEpisode, error) {
	query := url.Values{}
	query.Set("_limit", strconv.Itoa(limit))
	query.Set("_sort", "published_at")
	query.Set("_order", "desc")

	var result []model.APIEpisode
	if err := c.getJSON(ctx, "/episodes?"+query.Encode(), &result); err != nil {
		return nil, err
	}

	logger.Debug("[ListLatest] fetched episodes", logger.Int("count", len(result)))
	return result, nil
}

// Get 获取单集详情
func (c *Client) Get(ctx context.Context, id string) (*model.APIEpisode, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: empty id", ErrNotFound)
	}

	var result model.APIEpisode
	if err := c.getJSON(ctx, "/episodes/"+url.PathEscape(id), &result); err != nil {
		return nil, err
	}
	// json-server 对不存在的 id 可能返回 200 和空对象
	if result.ID == "" {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return &result, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	endpoint := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: create request: %v", ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Warn("episodes API request failed", logger.String("url", endpoint), logger.ErrorField(err))
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	logger.Debug("episodes API request",
		logger.String("url", endpoint),
		logger.Int("status", resp.StatusCode),
		logger.Duration("elapsed", time.Since(start)))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		// 读一点响应体方便排查
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		logger.Warn("episodes API returned error status",
			logger.String("url", endpoint),
			logger.Int("status", resp.StatusCode),
			logger.String("body", string(snippet)))
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		logger.Warn("episodes API returned malformed payload", logger.String("url", endpoint), logger.ErrorField(err))
		return fmt.Errorf("%w: decode: %v", ErrUnavailable, err)
	}
	return nil
}
