package providers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"StockSignal/internal/domain/service"
	"StockSignal/internal/services/sentiment"
	xhttp "StockSignal/pkg/http"

	"golang.org/x/time/rate"
)

// base carries what every adapter shares: a paced HTTP client and the text scorer.
type base struct {
	name    string
	client  *xhttp.Client
	limiter *rate.Limiter
	scorer  service.PolarityScorer
	now     func() time.Time
}

func newBase(name string, scorer service.PolarityScorer, timeout time.Duration, perSec float64, userAgent string) base {
	if perSec <= 0 {
		perSec = 1
	}
	opts := []xhttp.ClientOption{xhttp.WithTimeout(timeout)}
	if userAgent != "" {
		opts = append(opts, xhttp.WithUserAgent(userAgent))
	}
	return base{
		name:    name,
		client:  xhttp.NewClient(opts...),
		limiter: rate.NewLimiter(rate.Limit(perSec), 1),
		scorer:  scorer,
		now:     time.Now,
	}
}

func (b *base) Name() string { return b.name }

// get waits for the limiter, then issues a GET and decodes into dest.
// Credential rejections are marked permanent so the aggregator does not retry them.
func (b *base) get(ctx context.Context, url string, query map[string][]string, headers map[string]string, dest interface{}) error {
	if err := b.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: rate limit wait: %w", b.name, err)
	}
	err := b.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         url,
		QueryParams: query,
		Headers:     headers,
	}, dest)
	return b.classify(err)
}

func (b *base) classify(err error) error {
	if err == nil {
		return nil
	}
	err = fmt.Errorf("%s: %w", b.name, err)
	if se, ok := xhttp.AsStatusError(err); ok && se.Unauthorized() {
		return sentiment.Permanent(err)
	}
	return err
}

// score runs the collected texts through the polarity scorer.
func (b *base) score(ctx context.Context, texts []string) ([]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	vs, err := b.scorer.Score(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%s: score: %w", b.name, err)
	}
	return vs, nil
}

func joinText(parts ...string) string {
	nonEmpty := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, " ")
}

func dateOnly(t time.Time) string { return t.UTC().Format("2006-01-02") }
