package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// ErrEmptyReply 提供方返回空文本
var ErrEmptyReply = errors.New("assistant returned an empty reply")

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type generateResponse struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

// Client 生成式文本服务客户端
type Client struct {
	httpClient *resty.Client
	model      string
	logger     *zap.Logger
}

// NewClient 创建客户端；apiKey 为空时不带 Authorization 头
func NewClient(baseURL, model, apiKey string, timeout time.Duration, logger *zap.Logger) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(3 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || (r != nil && (r.StatusCode() == 429 || r.StatusCode() >= 500))
		}).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}

	return &Client{
		httpClient: client,
		model:      model,
		logger:     logger,
	}
}

// SetRetryWait 调整重试等待时间
func (c *Client) SetRetryWait(wait, maxWait time.Duration) *Client {
	c.httpClient.SetRetryWaitTime(wait).SetRetryMaxWaitTime(maxWait)
	return c
}

// Generate 发送 prompt，返回生成的文本
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	var body generateResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(generateRequest{Model: c.model, Prompt: prompt}).
		SetResult(&body).
		SetError(&body).
		Post("/v1/generate")
	if err != nil {
		c.logger.Error("Assistant API call failed", zap.Error(err))
		return "", fmt.Errorf("failed to call assistant API: %w", err)
	}
	if resp.IsError() {
		c.logger.Error("Assistant API returned error",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("error", body.Error),
		)
		return "", fmt.Errorf("assistant API error: status %d: %s", resp.StatusCode(), body.Error)
	}

	text := strings.TrimSpace(body.Text)
	if text == "" {
		return "", ErrEmptyReply
	}

	c.logger.Debug("Assistant reply received",
		zap.String("model", c.model),
		zap.Int("prompt_size", len(prompt)),
		zap.Int("reply_size", len(text)),
	)
	return text, nil
}
