package paypal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	tokenPath     = "/v1/oauth2/token"
	reportingPath = "/v1/reporting/transactions"

	maxBodyBytes  = 10 << 20
	maxErrorBytes = 512
)

var (
	ErrEmptyToken        = errors.New("paypal returned an empty access token")
	ErrMalformedResponse = errors.New("malformed reporting response")
)

// APIError is returned when the reporting endpoint answers with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("paypal reporting api: status %d: %s", e.StatusCode, e.Body)
}

type Config struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
	oauth      clientcredentials.Config
}

func NewClient(cfg Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		baseURL:    baseURL,
		timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
		oauth: clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     baseURL + tokenPath,
			AuthStyle:    oauth2.AuthStyleInHeader,
		},
	}
}

// AccessToken performs the client-credentials exchange.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	token, err := c.oauth.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("fetch access token: %w", err)
	}
	if token.AccessToken == "" {
		return "", ErrEmptyToken
	}
	return token.AccessToken, nil
}

// FetchTransactions requests a single page of the transaction report.
func (c *Client) FetchTransactions(ctx context.Context, accessToken string, query ReportQuery) (*ReportResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := c.baseURL + reportingPath + "?" + query.Values().Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build reporting request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "en_US")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch transactions: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read reporting response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := string(body)
		if len(msg) > maxErrorBytes {
			msg = msg[:maxErrorBytes]
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(msg)}
	}

	return DecodeReport(body)
}
