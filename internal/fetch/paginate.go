package fetch

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"strconv"

	"golang.org/x/time/rate"

	"github.com/dcmon/telemetry-gateway/internal/metrics"
)

// pageableMarkers are the query parameters that identify an endpoint as
// accepting skip/top-style page requests.
var pageableMarkers = []string{"$skip", "$top", "$filter", "$count", "$orderby"}

// IsPageable reports whether the URL carries recognizable pagination-related
// query markers.
func IsPageable(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	query := parsed.Query()
	for _, marker := range pageableMarkers {
		if query.Has(marker) {
			return true
		}
	}
	return false
}

// fetchPages retrieves a page-able result set with bounded-size page
// requests. Pages are requested strictly sequentially so skip offsets stay
// correct, paced by a limiter so the upstream is not overwhelmed.
//
// Termination: a short page, reaching an upstream-reported total, or the
// hard maxPages cap. A page fault after records have been accumulated
// returns the partial result instead of discarding fetched data; a fault
// on the first page propagates.
func (c *Client) fetchPages(ctx context.Context, req Request, base *url.URL, pageSize int) ([]json.RawMessage, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	// Burst of one: the first page goes out immediately, every later page
	// waits out the pacing interval.
	pacer := rate.NewLimiter(rate.Every(c.PageDelay), 1)

	var accumulated []json.RawMessage
	totalRecords := -1

	for page := 0; page < maxPages; page++ {
		if err := pacer.Wait(ctx); err != nil {
			if len(accumulated) > 0 {
				return accumulated, nil
			}
			return nil, err
		}

		skip := page * pageSize
		target := pageURL(base, skip, pageSize)

		result, err := c.do(ctx, req, target)
		if err != nil {
			if len(accumulated) > 0 {
				c.logger.Warn("Page request failed, returning partial result",
					slog.String("endpoint", req.URL),
					slog.Int("page", page),
					slog.Int("records", len(accumulated)),
					slog.String("error", err.Error()))
				return accumulated, nil
			}
			return nil, err
		}

		accumulated = append(accumulated, result.Records...)
		if result.TotalCount >= 0 {
			totalRecords = result.TotalCount
		}

		c.emit(metrics.Event{Type: metrics.EventPageFetched, Endpoint: req.URL})
		c.logger.Debug("Fetched page",
			slog.String("endpoint", req.URL),
			slog.Int("page", page),
			slog.Int("page_records", len(result.Records)),
			slog.Int("total_records", len(accumulated)))

		if len(result.Records) < pageSize {
			break
		}

		if totalRecords >= 0 && len(accumulated) >= totalRecords {
			break
		}
	}

	return accumulated, nil
}

// pageURL derives one page request URL, replacing any pre-existing $skip
// and $top values rather than duplicating them.
func pageURL(base *url.URL, skip, top int) string {
	paged := *base
	query := paged.Query()
	query.Set("$skip", strconv.Itoa(skip))
	query.Set("$top", strconv.Itoa(top))
	paged.RawQuery = query.Encode()
	return paged.String()
}
