package probe

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dcmon/telemetry-gateway/internal/fetch"
	"github.com/dcmon/telemetry-gateway/internal/normalize"
)

const (
	// slowResponse is the latency above which a response is flagged.
	slowResponse = 5 * time.Second

	// maxSafePageSize is the largest $top considered safe for one page.
	maxSafePageSize = 500

	// maxDiagnoseBody caps how much of a response body is inspected.
	maxDiagnoseBody = 1 << 20
)

// Report is a point-in-time diagnosis of one endpoint. Produced fresh on
// each call, never persisted.
type Report struct {
	URL             string        `json:"url"`
	CheckedAt       time.Time     `json:"checked_at"`
	Reachable       bool          `json:"reachable"`
	StatusCode      int           `json:"status_code,omitempty"`
	Latency         time.Duration `json:"latency"`
	ContentType     string        `json:"content_type,omitempty"`
	BodyShape       string        `json:"body_shape,omitempty"`
	Recommendations []string      `json:"recommendations"`
}

// Diagnose performs a single GET with all status codes accepted and
// assembles an operator-facing report with actionable recommendations.
func (p *Prober) Diagnose(ctx context.Context, rawURL string) Report {
	report := Report{
		URL:             rawURL,
		CheckedAt:       time.Now(),
		Recommendations: []string{},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		report.Recommendations = append(report.Recommendations,
			fmt.Sprintf("URL is not requestable: %v", err))
		return report
	}

	start := time.Now()
	res, err := p.deep.Do(req)
	report.Latency = time.Since(start)

	if err != nil {
		report.Recommendations = append(report.Recommendations,
			fmt.Sprintf("endpoint unreachable: %v", err))
		return report
	}
	defer res.Body.Close()

	report.Reachable = true
	report.StatusCode = res.StatusCode
	report.ContentType = res.Header.Get("Content-Type")

	body, err := io.ReadAll(io.LimitReader(res.Body, maxDiagnoseBody))
	if err == nil {
		if result, nerr := normalize.Normalize(body); nerr == nil {
			report.BodyShape = result.Shape.String()
		} else {
			report.BodyShape = "non-standard"
			report.Recommendations = append(report.Recommendations,
				"response body contains no recognizable record array")
		}
	}

	report.Recommendations = append(report.Recommendations, statusAdvice(res.StatusCode)...)

	if report.Latency > slowResponse {
		report.Recommendations = append(report.Recommendations,
			fmt.Sprintf("slow response (%s): consider smaller pages or a closer upstream", report.Latency.Round(time.Millisecond)))
	}

	report.Recommendations = append(report.Recommendations, paginationAdvice(rawURL)...)

	return report
}

func statusAdvice(status int) []string {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return []string{"authentication issue: verify the bearer token configuration"}
	case status == http.StatusNotFound:
		return []string{"path issue: verify the API route and base URL"}
	case status >= http.StatusInternalServerError:
		return []string{"server issue: the upstream is failing internally"}
	default:
		return nil
	}
}

func paginationAdvice(rawURL string) []string {
	if !fetch.IsPageable(rawURL) {
		return nil
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}

	top := parsed.Query().Get("$top")
	if top == "" {
		return []string{"page-able URL has no $top parameter: unbounded result pages"}
	}

	if n, err := strconv.Atoi(top); err == nil && n > maxSafePageSize {
		return []string{fmt.Sprintf("$top=%d is unsafely large: keep pages at or below %d records", n, maxSafePageSize)}
	}

	return nil
}
