package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"

	"github.com/illegalcall/inkgen/internal/apperror"
)

// Prediction statuses reported by Replicate.
const (
	StatusStarting   = "starting"
	StatusProcessing = "processing"
	StatusSucceeded  = "succeeded"
	StatusFailed     = "failed"
	StatusCanceled   = "canceled"
)

// Target names what to run: a public model ("owner/name") or a pinned
// version hash. Version wins when both are set.
type Target struct {
	Model   string
	Version string
}

// Predictor runs a prediction to completion.
type Predictor interface {
	Run(ctx context.Context, target Target, input map[string]any) (Output, error)
}

// Prediction mirrors the fields of a Replicate prediction this service reads.
type Prediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  json.RawMessage `json:"error"`
}

func (p Prediction) terminal() bool {
	return p.Status == StatusSucceeded || p.Status == StatusFailed || p.Status == StatusCanceled
}

func (p Prediction) errorText() string {
	if len(p.Error) == 0 {
		return ""
	}
	r := gjson.ParseBytes(p.Error)
	if r.Type == gjson.Null {
		return ""
	}
	return r.String()
}

type predictionRequest struct {
	Version string         `json:"version,omitempty"`
	Input   map[string]any `json:"input"`
}

// ReplicateClient talks to the Replicate predictions API.
type ReplicateClient struct {
	http         *resty.Client
	timeout      time.Duration
	pollInterval time.Duration
}

var _ Predictor = (*ReplicateClient)(nil)

func NewReplicateClient(baseURL, token string, timeout, pollInterval time.Duration) *ReplicateClient {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &ReplicateClient{
		http: resty.New().
			SetBaseURL(strings.TrimSuffix(baseURL, "/")).
			SetAuthToken(token).
			SetHeader("Content-Type", "application/json"),
		timeout:      timeout,
		pollInterval: pollInterval,
	}
}

// Run creates a prediction and polls it until it settles or the client
// timeout elapses. Every failure is an apperror: RateLimited for upstream
// 429s, GenerationFailed for everything else.
func (c *ReplicateClient) Run(ctx context.Context, target Target, input map[string]any) (Output, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	prediction, err := c.create(ctx, target, input)
	if err != nil {
		return Output{}, err
	}

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()
	for !prediction.terminal() {
		select {
		case <-ctx.Done():
			return Output{}, apperror.GenerationFailed(fmt.Sprintf("prediction %s did not finish: %v", prediction.ID, ctx.Err()))
		case <-ticker.C:
		}
		if prediction, err = c.get(ctx, prediction.ID); err != nil {
			return Output{}, err
		}
	}

	if prediction.Status != StatusSucceeded {
		return Output{}, apperror.GenerationFailed(fmt.Sprintf("prediction %s %s: %s", prediction.ID, prediction.Status, prediction.errorText()))
	}
	return ParseOutput(prediction.Output), nil
}

func (c *ReplicateClient) create(ctx context.Context, target Target, input map[string]any) (Prediction, error) {
	path := "/v1/predictions"
	body := predictionRequest{Version: target.Version, Input: input}
	if target.Version == "" {
		if target.Model == "" {
			return Prediction{}, apperror.GenerationFailed("no model or version configured")
		}
		path = "/v1/models/" + target.Model + "/predictions"
	}

	var prediction Prediction
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&prediction).
		Post(path)
	if err := checkResponse(resp, err, "create prediction"); err != nil {
		return Prediction{}, err
	}
	return prediction, nil
}

func (c *ReplicateClient) get(ctx context.Context, id string) (Prediction, error) {
	var prediction Prediction
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&prediction).
		Get("/v1/predictions/" + id)
	if err := checkResponse(resp, err, "get prediction"); err != nil {
		return Prediction{}, err
	}
	return prediction, nil
}

func checkResponse(resp *resty.Response, err error, action string) error {
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return apperror.GenerationFailed(action + ": provider timeout")
		}
		return apperror.GenerationFailed(fmt.Sprintf("%s: %v", action, err))
	}
	if resp.StatusCode() == http.StatusTooManyRequests {
		return apperror.RateLimited(fmt.Sprintf("%s: %s", action, resp.String()))
	}
	if resp.IsError() {
		return apperror.GenerationFailed(fmt.Sprintf("%s: status %d: %s", action, resp.StatusCode(), resp.String()))
	}
	return nil
}
