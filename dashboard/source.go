package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"usage-dashboard/cache"
	"usage-dashboard/model"
)

var ErrNoDatasetURL = errors.New("dataset csv_url is not configured")

// Source fetches the remote CSV feed and hands back normalized rows. The
// parsed dataset is cached so filter changes do not re-hit the feed.
type Source struct {
	url      string
	client   *http.Client
	cache    *cache.Cache
	pipeline *Pipeline
}

// NewSource creates a dataset source. cacheClient may be nil when caching
// is disabled.
func NewSource(url string, fetchTimeout time.Duration, cacheClient *cache.Cache, pipeline *Pipeline) *Source {
	return &Source{
		url:      url,
		client:   &http.Client{Timeout: fetchTimeout},
		cache:    cacheClient,
		pipeline: pipeline,
	}
}

// Rows returns the normalized dataset, from cache when fresh
func (s *Source) Rows(ctx context.Context) ([]model.FeatureRow, error) {
	if s.url == "" {
		return nil, ErrNoDatasetURL
	}

	if cached, found := s.cache.Get(s.url); found {
		if rows, ok := cached.([]model.FeatureRow); ok {
			return rows, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dataset fetch returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	raw, err := s.pipeline.Parse(string(body))
	if err != nil {
		return nil, err
	}
	rows := s.pipeline.Normalize(raw)

	log.Info().
		Int("raw_rows", len(raw)).
		Int("rows", len(rows)).
		Msg("Dataset fetched")

	s.cache.Set(s.url, rows, int64(len(body)))

	return rows, nil
}
