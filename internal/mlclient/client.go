// Package mlclient talks to the external chest X-ray classifier. The
// service exposes /health, /model-status and /predict; health and model
// readiness are cached briefly to keep the hot path to one round trip.
package mlclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/hoosuem8800/portal-api/pkg/circuitbreaker"
	apperrors "github.com/hoosuem8800/portal-api/pkg/errors"
	"github.com/hoosuem8800/portal-api/pkg/logger"
)

const (
	statusCacheTTL     = 30 * time.Second
	healthCacheKey     = "health"
	modelReadyCacheKey = "model_ready"
)

type Config struct {
	BaseURL        string        `mapstructure:"base_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	PredictTimeout time.Duration `mapstructure:"predict_timeout"`
}

// Prediction is the classifier's answer for one image.
type Prediction struct {
	Diagnosis          string             `json:"diagnosis"`
	Confidence         float64            `json:"confidence"`
	ClassProbabilities map[string]float64 `json:"class_probabilities"`
}

type Client struct {
	baseURL        string
	httpClient     *http.Client
	predictTimeout time.Duration
	statusCache    *gocache.Cache
	breaker        *circuitbreaker.CircuitBreaker
	logger         *logger.Logger
}

func NewClient(cfg Config, logger *logger.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	predictTimeout := cfg.PredictTimeout
	if predictTimeout <= 0 {
		predictTimeout = 30 * time.Second
	}

	return &Client{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:     &http.Client{Timeout: timeout},
		predictTimeout: predictTimeout,
		statusCache:    gocache.New(statusCacheTTL, time.Minute),
		breaker: circuitbreaker.New(circuitbreaker.Settings{
			Name:        "ml-api",
			MaxFailures: 5,
			Timeout:     30 * time.Second,
		}),
		logger: logger.WithComponent("mlclient"),
	}
}

// CheckHealth reports whether the ML API answers its health probe.
func (c *Client) CheckHealth(ctx context.Context) bool {
	if healthy, found := c.statusCache.Get(healthCacheKey); found {
		return healthy.(bool)
	}

	var body struct {
		Status string `json:"status"`
	}
	healthy := c.getJSON(ctx, "/health", &body) == nil && body.Status == "healthy"
	c.statusCache.Set(healthCacheKey, healthy, gocache.DefaultExpiration)
	return healthy
}

// CheckModelStatus reports whether the model is loaded and ready.
func (c *Client) CheckModelStatus(ctx context.Context) bool {
	if ready, found := c.statusCache.Get(modelReadyCacheKey); found {
		return ready.(bool)
	}

	var body struct {
		ModelReady bool `json:"model_ready"`
	}
	ready := c.getJSON(ctx, "/model-status", &body) == nil && body.ModelReady
	c.statusCache.Set(modelReadyCacheKey, ready, gocache.DefaultExpiration)
	return ready
}

// Analyze runs the full probe-then-predict sequence and maps upstream
// failures into the domain error taxonomy.
func (c *Client) Analyze(ctx context.Context, filename string, image io.Reader) (*Prediction, error) {
	if !c.CheckHealth(ctx) {
		return nil, apperrors.Unavailable("ML service is not available", nil)
	}
	if !c.CheckModelStatus(ctx) {
		return nil, apperrors.Unavailable("ML model is still loading, please try again in a few moments", nil)
	}

	var prediction *Prediction
	err := c.breaker.Execute(func() error {
		p, err := c.predict(ctx, filename, image)
		if err != nil {
			return err
		}
		prediction = p
		return nil
	})
	if err != nil {
		if errors.Is(err, circuitbreaker.ErrOpen) {
			return nil, apperrors.Unavailable("ML service is not available", err)
		}
		return nil, err
	}
	return prediction, nil
}

func (c *Client) predict(ctx context.Context, filename string, image io.Reader) (*Prediction, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := io.Copy(part, image); err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize upload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.predictTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return nil, apperrors.Unavailable("request to ML service timed out", err)
		}
		return nil, apperrors.Unavailable("ML service is not available", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errBody struct {
			Detail string `json:"detail"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		detail := errBody.Detail
		if detail == "" {
			detail = "unknown error"
		}
		c.logger.Error(nil, "ML API error", "status", resp.StatusCode, "detail", detail)
		return nil, apperrors.Unavailable(detail, nil)
	}

	var prediction Prediction
	if err := json.NewDecoder(resp.Body).Decode(&prediction); err != nil {
		return nil, fmt.Errorf("failed to decode prediction: %w", err)
	}
	return &prediction, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, path)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func isTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
