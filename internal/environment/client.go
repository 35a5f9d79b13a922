package environment

import (
	"context"
	"fmt"
	"time"

	"respiguard/internal/models"
	"respiguard/internal/scoring"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// currentResponse 环境数据接口响应
type currentResponse struct {
	AQI          int     `json:"aqi"`
	Pollen       string  `json:"pollen"`
	LocationName string  `json:"locationName"`
	Temperature  float64 `json:"temperature"`
	Humidity     float64 `json:"humidity"`
	PM25         float64 `json:"pm25"`
	Ozone        float64 `json:"ozone"`
	SO2          float64 `json:"so2"`
	NO2          float64 `json:"no2"`
}

// Client 空气质量/花粉数据提供方客户端
type Client struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewClient 创建环境数据客户端（5xx 与网络错误重试 3 次）
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || (r != nil && r.StatusCode() >= 500)
		}).
		SetHeader("Accept", "application/json")

	return &Client{
		httpClient: client,
		logger:     logger,
	}
}

// SetRetryWait 调整重试等待时间
func (c *Client) SetRetryWait(wait, maxWait time.Duration) *Client {
	c.httpClient.SetRetryWaitTime(wait).SetRetryMaxWaitTime(maxWait)
	return c
}

// Current 获取坐标处当前的 AQI、花粉等级与气象数据
func (c *Client) Current(ctx context.Context, lat, lon float64) (*models.EnvironmentSnapshot, error) {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, fmt.Errorf("invalid coordinates: lat=%g lon=%g", lat, lon)
	}

	var body currentResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("lat", fmt.Sprintf("%g", lat)).
		SetQueryParam("lon", fmt.Sprintf("%g", lon)).
		SetResult(&body).
		Get("/v1/current")
	if err != nil {
		c.logger.Error("Environment API call failed", zap.Error(err))
		return nil, fmt.Errorf("failed to call environment API: %w", err)
	}
	if resp.IsError() {
		c.logger.Error("Environment API returned error",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("body", resp.String()),
		)
		return nil, fmt.Errorf("environment API error: status %d", resp.StatusCode())
	}

	pollen, err := scoring.ParsePollenLevel(body.Pollen)
	if err != nil {
		return nil, fmt.Errorf("environment API returned bad pollen level: %w", err)
	}
	reading := scoring.EnvironmentalReading{AQI: body.AQI, Pollen: pollen}
	if err := scoring.ValidateEnvironment(reading); err != nil {
		return nil, fmt.Errorf("environment API returned bad reading: %w", err)
	}

	snap := &models.EnvironmentSnapshot{
		AQI:          body.AQI,
		AQICategory:  scoring.AQICategoryFor(body.AQI),
		Pollen:       pollen,
		LocationName: body.LocationName,
		Temperature:  body.Temperature,
		Humidity:     body.Humidity,
		PM25:         body.PM25,
		Ozone:        body.Ozone,
		SO2:          body.SO2,
		NO2:          body.NO2,
		FetchedAt:    time.Now().UTC(),
	}

	c.logger.Debug("Environment fetched",
		zap.String("location", snap.LocationName),
		zap.Int("aqi", snap.AQI),
		zap.String("pollen", string(snap.Pollen)),
	)
	return snap, nil
}
