package providers

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	domrepo "StockSignal/internal/domain/repository"
	"StockSignal/internal/domain/service"
	"StockSignal/pkg/config"
	xhttp "StockSignal/pkg/http"
	applogger "StockSignal/pkg/logger"
)

type redditToken struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type redditPost struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Selftext    string `json:"selftext"`
	NumComments int    `json:"num_comments"`
}

type redditListing struct {
	Data struct {
		Children []struct {
			Kind string          `json:"kind"`
			Data redditChildData `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// redditChildData covers both posts (t3) and comments (t1).
type redditChildData struct {
	redditPost
	Body string `json:"body"`
}

// Reddit scores posts and their top comments from finance subreddits.
type Reddit struct {
	base
	clientID     string
	clientSecret string
	authURL      string
	baseURL      string
	subreddits   string
	postLimit    int
	commentLimit int
	logger       *applogger.Logger

	mu      sync.Mutex
	token   string
	expires time.Time
}

var _ domrepo.SentimentProvider = (*Reddit)(nil)

func NewReddit(cfg config.RedditConfig, timeout time.Duration, scorer service.PolarityScorer, l *applogger.Logger) *Reddit {
	if l == nil {
		l = applogger.Nop()
	}
	return &Reddit{
		base:         newBase("reddit", scorer, timeout, cfg.RateLimit, cfg.UserAgent),
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		authURL:      strings.TrimRight(cfg.AuthURL, "/"),
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		subreddits:   strings.Join(cfg.Subreddits, "+"),
		postLimit:    cfg.PostLimit,
		commentLimit: cfg.CommentLimit,
		logger:       l.With(applogger.String("provider", "reddit")),
	}
}

func (r *Reddit) FetchSentiment(ctx context.Context, symbol, displayName string) ([]float64, error) {
	token, err := r.accessToken(ctx)
	if err != nil {
		return nil, err
	}
	auth := map[string]string{"Authorization": "bearer " + token}

	queries := []string{symbol, "$" + symbol}
	if displayName != "" && !strings.EqualFold(displayName, symbol) {
		queries = append(queries, displayName)
	}

	seen := make(map[string]bool)
	var texts []string
	for _, q := range queries {
		posts, err := r.search(ctx, q, auth)
		if err != nil {
			return nil, err
		}
		for _, p := range posts {
			if seen[p.ID] {
				continue
			}
			seen[p.ID] = true
			if t := joinText(p.Title, p.Selftext); t != "" {
				texts = append(texts, t)
			}
			if p.NumComments == 0 || r.commentLimit == 0 {
				continue
			}
			comments, err := r.comments(ctx, p.ID, auth)
			if err != nil {
				r.logger.Warn("failed to process comments",
					applogger.String("symbol", symbol),
					applogger.String("post_id", p.ID),
					applogger.Error(err),
				)
				continue
			}
			texts = append(texts, comments...)
		}
	}
	return r.score(ctx, texts)
}

func (r *Reddit) search(ctx context.Context, q string, auth map[string]string) ([]redditPost, error) {
	var listing redditListing
	err := r.get(ctx, r.baseURL+"/r/"+r.subreddits+"/search", map[string][]string{
		"q":           {q},
		"restrict_sr": {"1"},
		"t":           {"week"},
		"limit":       {strconv.Itoa(r.postLimit)},
		"raw_json":    {"1"},
	}, auth, &listing)
	if err != nil {
		return nil, err
	}
	out := make([]redditPost, 0, len(listing.Data.Children))
	for _, c := range listing.Data.Children {
		if c.Kind == "t3" && c.Data.ID != "" {
			out = append(out, c.Data.redditPost)
		}
	}
	return out, nil
}

// comments returns up to commentLimit top-level comment bodies.
func (r *Reddit) comments(ctx context.Context, postID string, auth map[string]string) ([]string, error) {
	var listings []redditListing
	err := r.get(ctx, r.baseURL+"/comments/"+url.PathEscape(postID), map[string][]string{
		"limit": {strconv.Itoa(r.commentLimit)},
		"depth": {"1"},
		"sort":  {"top"},
	}, auth, &listings)
	if err != nil {
		return nil, err
	}
	if len(listings) < 2 {
		return nil, nil
	}
	var out []string
	for _, c := range listings[1].Data.Children {
		if len(out) >= r.commentLimit {
			break
		}
		if c.Kind != "t1" {
			continue
		}
		body := strings.TrimSpace(c.Data.Body)
		if body == "" || body == "[deleted]" || body == "[removed]" {
			continue
		}
		out = append(out, body)
	}
	return out, nil
}

// accessToken returns a cached application-only token, refreshing a minute before expiry.
func (r *Reddit) accessToken(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.token != "" && r.now().Before(r.expires) {
		return r.token, nil
	}

	creds := base64.StdEncoding.EncodeToString([]byte(r.clientID + ":" + r.clientSecret))
	var tok redditToken
	err := r.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodPost,
		URL:     r.authURL + "/api/v1/access_token",
		Headers: map[string]string{"Authorization": "Basic " + creds},
		Body:    url.Values{"grant_type": {"client_credentials"}},
	}, &tok)
	if err != nil {
		return "", r.classify(fmt.Errorf("access token: %w", err))
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("reddit: empty access token")
	}
	ttl := time.Duration(tok.ExpiresIn)*time.Second - time.Minute
	if ttl <= 0 {
		ttl = time.Minute
	}
	r.token = tok.AccessToken
	r.expires = r.now().Add(ttl)
	return r.token, nil
}
