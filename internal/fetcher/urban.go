package fetcher

import (
	"cmp"
	"context"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/nanikabot/nanika/internal/setup/config"
	"github.com/nanikabot/nanika/pkg/utils"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultUrbanBaseURL is the Urban Dictionary API used without configuration.
const DefaultUrbanBaseURL = "https://api.urbandictionary.com/v0"

// Definition is one Urban Dictionary entry.
type Definition struct {
	DefID      int64     `json:"defid"`
	Word       string    `json:"word"`
	Definition string    `json:"definition"`
	Example    string    `json:"example"`
	Author     string    `json:"author"`
	Permalink  string    `json:"permalink"`
	WrittenOn  time.Time `json:"written_on"`
	ThumbsUp   int       `json:"thumbs_up"`
	ThumbsDown int       `json:"thumbs_down"`
}

type definitionList struct {
	List []Definition `json:"list"`
}

// Urban is an Urban Dictionary API client.
type Urban struct {
	client *client
}

// NewUrban creates an Urban client. A nil httpClient uses http.DefaultClient.
func NewUrban(httpClient HTTPClient, cfg *config.UrbanDictionary, logger *zap.Logger, opts ...Option) *Urban {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultUrbanBaseURL
	}

	limit := rate.Limit(cfg.RequestsPerSecond)
	if cfg.RequestsPerSecond <= 0 {
		limit = 5
	}

	burst := cfg.Burst
	if burst <= 0 {
		burst = 5
	}

	c := &client{
		http:    httpClient,
		baseURL: baseURL,
		limiter: rate.NewLimiter(limit, burst),
		retry:   utils.GetHTTPRetryOptions(),
		logger:  logger.Named("urban"),
	}
	for _, opt := range opts {
		opt(c)
	}

	return &Urban{client: c}
}

// Define looks up term, best voted definitions first.
func (u *Urban) Define(ctx context.Context, term string) ([]Definition, error) {
	return u.definitions(ctx, "/define", url.Values{"term": {term}}, true)
}

// Random returns random definitions, best voted first.
func (u *Urban) Random(ctx context.Context) ([]Definition, error) {
	return u.definitions(ctx, "/random", nil, false)
}

// Autocomplete returns words Urban Dictionary suggests for term.
func (u *Urban) Autocomplete(ctx context.Context, term string) ([]string, error) {
	return getJSON[[]string](ctx, u.client, "/autocomplete", url.Values{"term": {term}}, true)
}

func (u *Urban) definitions(ctx context.Context, path string, query url.Values, cacheable bool) ([]Definition, error) {
	res, err := getJSON[definitionList](ctx, u.client, path, query, cacheable)
	if err != nil {
		return nil, err
	}

	SortByVotes(res.List)

	return res.List, nil
}

// SortByVotes orders definitions by thumbs up, then thumbs down, both
// descending.
func SortByVotes(defs []Definition) {
	slices.SortStableFunc(defs, func(a, b Definition) int {
		if c := cmp.Compare(b.ThumbsUp, a.ThumbsUp); c != 0 {
			return c
		}
		return cmp.Compare(b.ThumbsDown, a.ThumbsDown)
	})
}
