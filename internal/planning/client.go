// Package planning is the client for the remote planning and registration
// service. Each method is one request/response exchange; none of them
// retry.
package planning

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/SciKit-Surgery/scikit-surgeryfred/internal/models"
)

var (
	// ErrStatus wraps non-2xx responses.
	ErrStatus = errors.New("planning: unexpected status")
	// ErrMalformed wraps responses that decode but lack required fields.
	ErrMalformed = errors.New("planning: malformed response")
	// ErrUnavailable is returned when the service declines to open a session.
	ErrUnavailable = errors.New("planning: store unavailable")
)

// Client talks JSON over HTTP to the planning service.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

// NewClient creates a client. A zero timeout waits indefinitely.
func NewClient(baseURL string, timeout time.Duration, log *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log.Named("planning"),
	}
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	start := time.Now()
	var reader io.Reader = http.NoBody
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", path, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	defer resp.Body.Close()

	c.log.Debug("planning request",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s: %w %d", path, ErrStatus, resp.StatusCode)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", path, err)
	}
	return nil
}

// DefaultOutline fetches the organ outline used for every trial.
func (c *Client) DefaultOutline(ctx context.Context) (models.Outline, error) {
	var resp outlineResponse
	if err := c.post(ctx, "/defaultcontour", nil, &resp); err != nil {
		return nil, err
	}
	if len(resp.Contour) == 0 {
		return nil, fmt.Errorf("/defaultcontour: %w: empty contour", ErrMalformed)
	}
	return resp.Contour, nil
}

// NewTarget asks for a target point inside outline.
func (c *Client) NewTarget(ctx context.Context, outline models.Outline) (models.Point, error) {
	var resp targetResponse
	if err := c.post(ctx, "/gettarget", outline, &resp); err != nil {
		return models.Point{}, err
	}
	if resp.Target == nil {
		return models.Point{}, fmt.Errorf("/gettarget: %w: no target", ErrMalformed)
	}
	return *resp.Target, nil
}

// TrialFLE fetches the localisation error parameters for a new trial.
func (c *Client) TrialFLE(ctx context.Context) (models.FLEParameters, error) {
	var fle models.FLEParameters
	if err := c.post(ctx, "/getfle", nil, &fle); err != nil {
		return models.FLEParameters{}, err
	}
	return fle, nil
}

// PlaceFiducial submits a click. A rejected click is not an error.
func (c *Client) PlaceFiducial(ctx context.Context, req PlacementRequest) (Placement, error) {
	var resp placementResponse
	if err := c.post(ctx, "/placefiducial", req, &resp); err != nil {
		return Placement{}, err
	}
	if !resp.Valid {
		return Placement{}, nil
	}
	if resp.Moving == nil || resp.Fixed == nil {
		return Placement{}, fmt.Errorf("/placefiducial: %w: accepted without points", ErrMalformed)
	}
	return Placement{Accepted: true, Moving: *resp.Moving, Fixed: *resp.Fixed}, nil
}

// Register runs a registration over every fiducial collected so far.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (models.Registration, error) {
	var resp registerResponse
	if err := c.post(ctx, "/register", req, &resp); err != nil {
		return models.Registration{}, err
	}
	if !resp.Success {
		return models.Registration{}, nil
	}
	if resp.TransformedTarget == nil {
		return models.Registration{}, fmt.Errorf("/register: %w: no transformed target", ErrMalformed)
	}
	return models.Registration{
		Success:           true,
		TransformedTarget: *resp.TransformedTarget,
		Result: models.TrialResult{
			ActualTRE:     resp.ActualTRE,
			FRE:           resp.FRE,
			ExpectedTRE:   resp.ExpectedTRE,
			ExpectedFRE:   resp.ExpectedFRE,
			MeanFLE:       resp.MeanFLE,
			FiducialCount: resp.FiducialCount,
		},
	}, nil
}

// Score asks for the score of an ablation with the given margin.
func (c *Client) Score(ctx context.Context, req ScoreRequest) (float64, error) {
	var resp scoreResponse
	if err := c.post(ctx, "/calculatescore", req, &resp); err != nil {
		return 0, err
	}
	if resp.Score == nil {
		return 0, fmt.Errorf("/calculatescore: %w: no score", ErrMalformed)
	}
	return *resp.Score, nil
}

// Correlate submits a full results snapshot for cross-trial analysis.
func (c *Client) Correlate(ctx context.Context, snapshot []models.TrialResult) (models.CorrelationSummary, error) {
	rows := make([][]float64, len(snapshot))
	for i, r := range snapshot {
		rows[i] = r.Row()
	}
	var resp correlationResponse
	if err := c.post(ctx, "/correlation", rows, &resp); err != nil {
		return models.CorrelationSummary{}, err
	}
	if len(resp.Coefficients) != len(resp.Xs) || len(resp.Xs) != len(resp.Ys) {
		return models.CorrelationSummary{}, fmt.Errorf("/correlation: %w: %d coefficients, %d x fits, %d y fits",
			ErrMalformed, len(resp.Coefficients), len(resp.Xs), len(resp.Ys))
	}
	summary := models.CorrelationSummary{
		Success:      resp.Success,
		Coefficients: resp.Coefficients,
		Fits:         make([]models.FitLine, len(resp.Xs)),
	}
	for i := range resp.Xs {
		summary.Fits[i] = models.FitLine{X: resp.Xs[i], Y: resp.Ys[i]}
	}
	return summary, nil
}

// InitSession opens a results document and returns its reference.
func (c *Client) InitSession(ctx context.Context) (string, error) {
	var resp initResponse
	if err := c.post(ctx, "/initdatabase", nil, &resp); err != nil {
		return "", err
	}
	if !resp.Success || resp.Reference == "" {
		return "", ErrUnavailable
	}
	return resp.Reference, nil
}

// WriteTrialResult stores one registration result under reference.
func (c *Client) WriteTrialResult(ctx context.Context, reference string, r models.TrialResult) error {
	return c.post(ctx, "/writeresults", trialRecordRequest{Reference: reference, Result: r}, nil)
}

// WriteGameAudit stores one scored ablation.
func (c *Client) WriteGameAudit(ctx context.Context, a models.GameAudit) error {
	return c.post(ctx, "/writegameresults", gameRecordRequest{
		Reference:             a.GameReference,
		State:                 a.Trial.String(),
		Score:                 a.Score,
		Margin:                a.Margin,
		RegistrationReference: a.RegistrationReference,
	}, nil)
}
