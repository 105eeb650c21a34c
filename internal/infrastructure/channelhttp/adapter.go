package channelhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chansync/backend/internal/domain/channel"
)

// maxResponseSize caps how much of a channel response is read (10MB)
const maxResponseSize = 10 * 1024 * 1024

// Channel configuration keys consumed by this adapter.
const (
	ConfKeyBaseURL = "base_url"
	ConfKeyAPIKey  = "api_key"
)

// ErrChannelNotConfigured indicates the channel carries no base_url
var ErrChannelNotConfigured = errors.New("channelhttp: channel has no base_url configured")

// ErrChannelRequestFailed indicates the channel answered with an error status
var ErrChannelRequestFailed = errors.New("channelhttp: channel request failed")

// ErrChannelInvalidResponse indicates the channel answered with an unparsable body
var ErrChannelInvalidResponse = errors.New("channelhttp: invalid channel response")

// Adapter implements channel.Adapter over a JSON REST surface. The target
// endpoint and credentials come from the channel's own configuration map, so
// one adapter instance serves every configured channel.
type Adapter struct {
	httpClient *http.Client
	logger     *zap.Logger
}

// NewAdapter creates an adapter with the given request timeout.
func NewAdapter(timeout time.Duration, logger *zap.Logger) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type submitRequest struct {
	LocalBatchID uuid.UUID                  `json:"local_batch_id"`
	Items        []channel.BatchPayloadItem `json:"items"`
}

type submitResponse struct {
	Completed     bool                   `json:"completed"`
	RemoteBatchID string                 `json:"remote_batch_id,omitempty"`
	Items         []channel.ResponseItem `json:"items,omitempty"`
}

type checkResponse struct {
	Running bool                   `json:"running"`
	Items   []channel.ResponseItem `json:"items,omitempty"`
}

// SubmitBatch posts a batch payload to the channel's batch endpoint.
// Synchronous channels answer with completed=true and inline items;
// asynchronous ones hand back a remote batch handle.
func (a *Adapter) SubmitBatch(ctx context.Context, ch *channel.Channel, localBatchID uuid.UUID, items []channel.BatchPayloadItem) (*channel.SubmitResult, error) {
	endpoint, err := a.endpoint(ch, "/batches")
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(submitRequest{LocalBatchID: localBatchID, Items: items})
	if err != nil {
		return nil, fmt.Errorf("channelhttp: encode batch payload: %w", err)
	}

	respBody, err := a.doRequest(ctx, ch, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var resp submitResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrChannelInvalidResponse, err)
	}
	if !resp.Completed && resp.RemoteBatchID == "" {
		return nil, fmt.Errorf("%w: asynchronous submission without remote batch id", ErrChannelInvalidResponse)
	}

	a.logger.Debug("submitted batch to channel",
		zap.String("channel_code", ch.Code),
		zap.String("local_batch_id", localBatchID.String()),
		zap.Bool("completed", resp.Completed),
		zap.Int("items", len(items)))

	return &channel.SubmitResult{
		Completed:     resp.Completed,
		RemoteBatchID: resp.RemoteBatchID,
		Items:         resp.Items,
	}, nil
}

// CheckBatch polls the channel for the state of a previously submitted batch.
func (a *Adapter) CheckBatch(ctx context.Context, ch *channel.Channel, remoteBatchID string) (*channel.CheckResult, error) {
	endpoint, err := a.endpoint(ch, "/batches/"+url.PathEscape(remoteBatchID))
	if err != nil {
		return nil, err
	}

	respBody, err := a.doRequest(ctx, ch, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	var resp checkResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrChannelInvalidResponse, err)
	}

	return &channel.CheckResult{Running: resp.Running, Items: resp.Items}, nil
}

func (a *Adapter) endpoint(ch *channel.Channel, path string) (string, error) {
	base := ch.ConfValue(ConfKeyBaseURL)
	if base == "" {
		return "", fmt.Errorf("%w: channel %s", ErrChannelNotConfigured, ch.Code)
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("%w: channel %s: %v", ErrChannelNotConfigured, ch.Code, err)
	}
	return u.JoinPath(path).String(), nil
}

func (a *Adapter) doRequest(ctx context.Context, ch *channel.Channel, method, endpoint string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("channelhttp: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if key := ch.ConfValue(ConfKeyAPIKey); key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("channelhttp: channel %s unreachable: %w", ch.Code, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("channelhttp: read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: channel %s answered HTTP %d", ErrChannelRequestFailed, ch.Code, resp.StatusCode)
	}
	return respBody, nil
}

var _ channel.Adapter = (*Adapter)(nil)
