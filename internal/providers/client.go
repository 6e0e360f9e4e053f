package providers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

type APIClient interface {
	Get(ctx context.Context, endpoint string, params url.Values) ([]byte, error)
}

type Client struct {
	apiKey  string
	client  *http.Client
	retrier Retrier
	circuit *gobreaker.CircuitBreaker
}

type Option func(*clientOptions)

type clientOptions struct {
	timeout     time.Duration
	attempts    int
	delay       time.Duration
	wait        WaitFunc
	maxFailures uint32
	openTimeout time.Duration
}

func WithTimeout(timeout time.Duration) Option {
	return func(o *clientOptions) { o.timeout = timeout }
}

func WithRetry(attempts int, delay time.Duration) Option {
	return func(o *clientOptions) {
		o.attempts = attempts
		o.delay = delay
	}
}

func WithWaitFunc(wait WaitFunc) Option {
	return func(o *clientOptions) { o.wait = wait }
}

func WithCircuitBreaker(maxFailures uint32, openTimeout time.Duration) Option {
	return func(o *clientOptions) {
		o.maxFailures = maxFailures
		o.openTimeout = openTimeout
	}
}

func NewClient(apiKey string, opts ...Option) *Client {
	o := clientOptions{
		timeout:     10 * time.Second,
		attempts:    3,
		delay:       5 * time.Second,
		maxFailures: 5,
		openTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(&o)
	}

	retrier := NewRetrier(o.attempts, o.delay)
	if o.wait != nil {
		retrier.Wait = o.wait
	}

	maxFailures := o.maxFailures
	circuit := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "openweather",
		Timeout: o.openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return maxFailures > 0 && counts.ConsecutiveFailures > maxFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})

	return &Client{
		apiKey: apiKey,
		client: &http.Client{
			Timeout: o.timeout,
		},
		retrier: retrier,
		circuit: circuit,
	}
}

type response struct {
	statusCode int
	body       []byte
}

// Get performs a GET against endpoint with params and the API key. Transport
// failures are retried; a non-2xx status is returned as *BadStatusError
// without retrying.
func (c *Client) Get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	query := url.Values{}
	for k, v := range params {
		query[k] = append([]string(nil), v...)
	}
	query.Set("appid", c.apiKey)

	resp, attempts, err := retry(ctx, c.retrier, func(attempt int) (response, error) {
		log.Debug().
			Str("endpoint", endpoint).
			Int("attempt", attempt).
			Str("state", "REQUESTING").
			Msg("sending weather API request")

		return c.do(ctx, endpoint, query)
	})
	if err != nil {
		return nil, &ConnectionError{Endpoint: endpoint, Attempts: attempts, Err: err}
	}

	if resp.statusCode < 200 || resp.statusCode >= 300 {
		return nil, &BadStatusError{Endpoint: endpoint, StatusCode: resp.statusCode}
	}

	return resp.body, nil
}

func (c *Client) do(ctx context.Context, endpoint string, query url.Values) (response, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return response{}, fmt.Errorf("invalid endpoint %q: %w", endpoint, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return response{}, fmt.Errorf("invalid endpoint %q: missing scheme or host", endpoint)
	}
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return response{}, err
	}

	result, err := c.circuit.Execute(func() (interface{}, error) {
		httpResp, err := c.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer httpResp.Body.Close()

		body, err := io.ReadAll(httpResp.Body)
		if err != nil {
			return nil, fmt.Errorf("reading response body: %w", err)
		}

		return response{statusCode: httpResp.StatusCode, body: body}, nil
	})
	if err != nil {
		return response{}, err
	}

	resp, ok := result.(response)
	if !ok {
		return response{}, fmt.Errorf("unexpected result type from circuit breaker")
	}

	return resp, nil
}

func (c *Client) GetHTTPClient() *http.Client {
	return c.client
}
