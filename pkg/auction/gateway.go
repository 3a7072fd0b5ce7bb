package auction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/Sternrassler/auction-monitor/pkg/client"
	"github.com/Sternrassler/auction-monitor/pkg/pagination"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for gateway operations.
var (
	authenticationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auction_authentications_total",
		Help: "Authentication attempts against the marketplace by result",
	}, []string{"result"})

	pagesFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "auction_pages_fetched_total",
		Help: "Buyer listing pages fetched successfully",
	})

	fetchFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "auction_fetch_failures_total",
		Help: "Failed FetchAll calls by kind",
	}, []string{"kind"})
)

// Remote endpoints.
const (
	authenticationPath = "/v1/authentication/"
	buyerAuctionsPath  = "/v2/auction/buyer/"
)

// DefaultPageLimit is the page size used when none is configured.
const DefaultPageLimit = 4000

// Transport performs JSON requests against the marketplace. Error responses
// are reported as *client.TransportError.
type Transport interface {
	Get(ctx context.Context, path string, query url.Values, headers http.Header, out any) error
	Put(ctx context.Context, path string, body any, out any) error
}

// Logger is the logging sink used by the gateway.
type Logger interface {
	Log(message string)
	Error(message string, fields map[string]any)
}

// GatewayConfig holds the buyer account and paging settings.
type GatewayConfig struct {
	Email     string
	Password  string
	PageLimit int
}

// Gateway fetches the complete list of running auctions.
//
// Credentials are obtained on the first FetchAll and reused for the lifetime
// of the Gateway. A failed authentication leaves them unset so the next call
// tries again.
type Gateway struct {
	transport Transport
	logger    Logger
	config    GatewayConfig

	mu          sync.Mutex
	credentials *Credentials
}

// NewGateway creates a gateway. PageLimit defaults to DefaultPageLimit.
func NewGateway(transport Transport, logger Logger, cfg GatewayConfig) (*Gateway, error) {
	if transport == nil {
		return nil, fmt.Errorf("transport is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if cfg.Email == "" {
		return nil, fmt.Errorf("email is required")
	}
	if cfg.Password == "" {
		return nil, fmt.Errorf("password is required")
	}
	if cfg.PageLimit <= 0 {
		cfg.PageLimit = DefaultPageLimit
	}

	return &Gateway{
		transport: transport,
		logger:    logger,
		config:    cfg,
	}, nil
}

// FetchAll authenticates if needed and returns every running auction.
// Either the complete list is returned or an error, never a partial list.
func (g *Gateway) FetchAll(ctx context.Context) ([]Auction, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.authenticate(ctx); err != nil {
		return nil, err
	}

	fetcher := pagination.FetcherFunc[Auction](func(ctx context.Context, limit, offset int) ([]Auction, int, error) {
		page, err := g.fetchPage(ctx, limit, offset)
		if err != nil {
			return nil, 0, err
		}
		return page.Items, page.Total, nil
	})

	auctions, err := pagination.Walk[Auction](ctx, fetcher, g.config.PageLimit)
	if err == nil {
		return auctions, nil
	}

	if te, ok := client.AsTransportError(err); ok {
		fetchFailuresTotal.WithLabelValues("transport").Inc()
		g.logger.Error("Fetching Auction Failed", map[string]any{
			"statusCode": te.StatusCode,
			"message":    te.Body.Message,
		})
		return nil, &Error{Kind: ErrAuctionFetch, StatusCode: te.StatusCode, Message: te.Body.Message}
	}

	var ie *pagination.InconsistencyError
	if errors.As(err, &ie) {
		fetchFailuresTotal.WithLabelValues("inconsistent").Inc()
		g.logger.Error("Pagination inconsistency", map[string]any{
			"offset":   ie.Offset,
			"total":    ie.Total,
			"received": ie.Received,
		})
		return nil, &Error{Kind: ErrPaginationInconsistency, Message: ie.Error()}
	}

	fetchFailuresTotal.WithLabelValues("other").Inc()
	return nil, err
}

// FetchPage fetches one page of the buyer listing. It requires a prior
// successful FetchAll. Transport errors are returned unchanged.
func (g *Gateway) FetchPage(ctx context.Context, limit, offset int) (*Page, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.fetchPage(ctx, limit, offset)
}

// Authenticated reports whether credentials are cached.
func (g *Gateway) Authenticated() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.credentials != nil
}

func (g *Gateway) fetchPage(ctx context.Context, limit, offset int) (*Page, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive (got %d)", limit)
	}
	if offset < 0 {
		return nil, fmt.Errorf("offset must not be negative (got %d)", offset)
	}
	if g.credentials == nil {
		return nil, ErrNotAuthenticated
	}

	filter, err := json.Marshal(struct {
		Limit  int `json:"limit"`
		Offset int `json:"offset"`
	}{Limit: limit, Offset: offset})
	if err != nil {
		return nil, fmt.Errorf("marshal filter: %w", err)
	}

	query := url.Values{}
	query.Set("filter", string(filter))

	headers := http.Header{}
	headers.Set("authtoken", g.credentials.Token)
	headers.Set("userid", g.credentials.UserID)

	var page Page
	if err := g.transport.Get(ctx, buyerAuctionsPath, query, headers, &page); err != nil {
		return nil, err
	}
	pagesFetchedTotal.Inc()

	return &page, nil
}

// authenticate obtains credentials unless they are already cached.
func (g *Gateway) authenticate(ctx context.Context) error {
	if g.credentials != nil {
		return nil
	}

	var creds Credentials
	path := authenticationPath + url.PathEscape(g.config.Email)
	body := map[string]string{"password": g.config.Password}

	if err := g.transport.Put(ctx, path, body, &creds); err != nil {
		te, ok := client.AsTransportError(err)
		if !ok {
			authenticationsTotal.WithLabelValues("error").Inc()
			return err
		}

		authenticationsTotal.WithLabelValues("rejected").Inc()
		g.logger.Error("Failed to authenticate", map[string]any{
			"statusCode": te.StatusCode,
			"message":    te.Body.Message,
		})
		return &Error{Kind: ErrAuthentication, StatusCode: te.StatusCode, Message: te.Body.Message}
	}

	if !creds.complete() {
		authenticationsTotal.WithLabelValues("incomplete").Inc()
		g.logger.Error("Failed to authenticate", map[string]any{
			"message": "incomplete credentials",
		})
		return &Error{Kind: ErrAuthentication, Message: "incomplete credentials"}
	}

	authenticationsTotal.WithLabelValues("success").Inc()
	g.credentials = &creds
	g.logger.Log("Authenticated as buyer " + strconv.Quote(creds.UserID))

	return nil
}
