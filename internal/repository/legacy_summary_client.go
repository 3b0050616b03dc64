package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/tramita/inbox-api/internal/dto"
	"github.com/tramita/inbox-api/internal/models"
	appErrors "github.com/tramita/inbox-api/pkg/errors"
)

// LegacySummaryClient fetches inbox statistics from the legacy backend that
// is still authoritative during the migration. Its responses are loosely
// keyed; normalization happens in dto.LegacySummary before anything else sees
// the payload.
type LegacySummaryClient struct {
	baseURL string
	client  *http.Client
}

// NewLegacySummaryClient constructs the client.
func NewLegacySummaryClient(baseURL string, timeout time.Duration) *LegacySummaryClient {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &LegacySummaryClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Summary fetches and normalizes the legacy statistics for a queue context.
func (c *LegacySummaryClient) Summary(ctx context.Context, qctx models.QueueContext) (models.StatisticsSnapshot, error) {
	endpoint, err := url.Parse(c.baseURL)
	if err != nil {
		return models.StatisticsSnapshot{}, fmt.Errorf("parse legacy summary url: %w", err)
	}

	query := endpoint.Query()
	query.Set("fila", string(qctx.Queue))
	if qctx.Queue == models.QueuePersonal {
		query.Set("usuario", strconv.FormatInt(qctx.UserID, 10))
	} else if qctx.Sector != "" {
		query.Set("setor", models.NormalizeSector(qctx.Sector))
	}
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return models.StatisticsSnapshot{}, fmt.Errorf("build legacy summary request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return models.StatisticsSnapshot{}, appErrors.Wrap(err,
			appErrors.ErrUpstreamUnavailable.Code, appErrors.ErrUpstreamUnavailable.Status,
			"legacy summary unreachable")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return models.StatisticsSnapshot{}, appErrors.Clone(appErrors.ErrUpstreamUnavailable,
			fmt.Sprintf("legacy summary returned status %d", resp.StatusCode))
	}

	var summary dto.LegacySummary
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		return models.StatisticsSnapshot{}, fmt.Errorf("decode legacy summary: %w", err)
	}
	return summary.Snapshot(), nil
}
