package upstream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"LiveGameSync/internal/config"
	"LiveGameSync/internal/gameid"
	"LiveGameSync/internal/utils/httpclient"

	"github.com/sirupsen/logrus"
)

// FetchStatus 单次条件请求的结果状态
type FetchStatus int

const (
	StatusFetched     FetchStatus = iota // 200，拿到新payload
	StatusNotModified                    // 304，内容未变（无payload，正常结果）
)

// FetchResult 条件请求结果：状态 + payload + 新validator + server通告的缓存寿命
type FetchResult struct {
	Status FetchStatus
	Body   []byte        // 仅Status==StatusFetched时有值
	ETag   string        // 响应携带的新validator（可能为空）
	MaxAge time.Duration // Cache-Control max-age，0=无提示
}

// StatusError 非200/304的响应状态，按抓取失败处理
type StatusError struct {
	Code int
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("上游返回异常状态 %d: %s", e.Code, e.URL)
}

// Client 上游桥接服务的条件请求客户端
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient 创建上游客户端
func NewClient(cfg *config.UpstreamConfig, logger *logrus.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpclient.NewHTTPClient(cfg, logger),
		logger:     logger,
	}
}

// FetchSchedule 拉取指定日期赛程（date格式YYYY-MM-DD，先校验再发请求）
func (c *Client) FetchSchedule(ctx context.Context, date string, etag string) (*FetchResult, error) {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return nil, fmt.Errorf("非法日期 %q: %w", date, err)
	}
	path := fmt.Sprintf("/schedule/%d/%d/%d", t.Year(), int(t.Month()), t.Day())
	return c.get(ctx, path, etag)
}

// FetchSummary 拉取单场比赛摘要
func (c *Client) FetchSummary(ctx context.Context, gameID string, etag string) (*FetchResult, error) {
	if err := validateGameID(gameID); err != nil {
		return nil, err
	}
	return c.get(ctx, fmt.Sprintf("/games/%s/summary", gameID), etag)
}

// FetchPlayByPlay 拉取单场比赛逐回合数据
func (c *Client) FetchPlayByPlay(ctx context.Context, gameID string, etag string) (*FetchResult, error) {
	if err := validateGameID(gameID); err != nil {
		return nil, err
	}
	return c.get(ctx, fmt.Sprintf("/games/%s/pbp", gameID), etag)
}

// get 执行一次条件GET：有validator则带If-None-Match，304是正常结果不是错误
func (c *Client) get(ctx context.Context, path string, etag string) (*FetchResult, error) {
	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("构建请求失败: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求上游失败: %w", err)
	}
	defer resp.Body.Close()

	result := &FetchResult{
		ETag:   resp.Header.Get("ETag"),
		MaxAge: parseMaxAge(resp.Header.Get("Cache-Control")),
	}

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("读取响应失败: %w", err)
		}
		result.Status = StatusFetched
		result.Body = body
		return result, nil
	case http.StatusNotModified:
		result.Status = StatusNotModified
		return result, nil
	default:
		return nil, &StatusError{Code: resp.StatusCode, URL: url}
	}
}

// parseMaxAge 解析Cache-Control中的max-age（秒），缺失或非法返回0
func parseMaxAge(cacheControl string) time.Duration {
	for _, part := range strings.Split(cacheControl, ",") {
		part = strings.TrimSpace(part)
		if !strings.HasPrefix(part, "max-age=") {
			continue
		}
		seconds, err := strconv.Atoi(strings.TrimPrefix(part, "max-age="))
		if err != nil || seconds < 0 {
			return 0
		}
		return time.Duration(seconds) * time.Second
	}
	return 0
}

// validateGameID 校验比赛ID（内部UUID或上游原生ID均可），不合法直接拒绝不发请求
func validateGameID(id string) error {
	if gameid.IsNativeID(id) || gameid.IsValidUUID(id) {
		return nil
	}
	return fmt.Errorf("非法比赛ID: %q", id)
}
