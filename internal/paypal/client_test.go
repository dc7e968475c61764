package paypal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		BaseURL:      srv.URL + "/",
		ClientID:     "client",
		ClientSecret: "secret",
		Timeout:      2 * time.Second,
	})
}

func testQuery(t *testing.T) ReportQuery {
	t.Helper()
	q, err := NewReportQuery(
		time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 5, 1, 23, 59, 59, 0, time.UTC),
		50,
	)
	require.NoError(t, err)
	return q
}

func TestAccessToken_ClientCredentialsExchange(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(tokenPath, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "client", user)
		assert.Equal(t, "secret", pass)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"A21AA","token_type":"Bearer","expires_in":32400}`)
	})

	token, err := newTestClient(t, mux).AccessToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "A21AA", token)
}

func TestAccessToken_Rejected(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(tokenPath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":"invalid_client","error_description":"Client Authentication failed"}`)
	})

	_, err := newTestClient(t, mux).AccessToken(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch access token")
}

func TestFetchTransactions_RequestShape(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(reportingPath, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))

		q := r.URL.Query()
		assert.Equal(t, "2024-05-01T00:00:00Z", q.Get("start_date"))
		assert.Equal(t, "2024-05-01T23:59:59Z", q.Get("end_date"))
		assert.Equal(t, "all", q.Get("fields"))
		assert.Equal(t, "50", q.Get("page_size"))
		assert.Equal(t, "2", q.Get("page"))

		fmt.Fprint(w, `{
			"transaction_details": [{
				"transaction_info": {
					"transaction_id": "9GS80322P2892433A",
					"transaction_event_code": "T0006",
					"transaction_initiation_date": "2024-05-01T10:00:00+0000",
					"transaction_amount": {"currency_code": "USD", "value": 10.5},
					"transaction_status": "S"
				},
				"payer_info": {"email_address": "buyer@example.com"}
			}],
			"page": 2,
			"total_items": 51,
			"total_pages": 2
		}`)
	})

	report, err := newTestClient(t, mux).FetchTransactions(context.Background(), "tok", testQuery(t).WithPage(2))
	require.NoError(t, err)
	require.Len(t, report.TransactionDetails, 1)

	info := report.TransactionDetails[0].TransactionInfo
	assert.Equal(t, "9GS80322P2892433A", info.TransactionID)
	assert.Equal(t, AmountValue("10.5"), info.Amount.Value)
	assert.Equal(t, 2, report.TotalPages)
	require.NotNil(t, report.TransactionDetails[0].PayerInfo)
	assert.Equal(t, "buyer@example.com", *report.TransactionDetails[0].PayerInfo.EmailAddress)
}

func TestFetchTransactions_Non2xx(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(reportingPath, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, strings.Repeat("x", 2000))
	})

	_, err := newTestClient(t, mux).FetchTransactions(context.Background(), "tok", testQuery(t))
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Len(t, apiErr.Body, maxErrorBytes)
}

func TestFetchTransactions_NotJSON(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(reportingPath, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>maintenance</html>")
	})

	_, err := newTestClient(t, mux).FetchTransactions(context.Background(), "tok", testQuery(t))
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestFetchTransactions_Timeout(t *testing.T) {
	release := make(chan struct{})
	mux := http.NewServeMux()
	mux.HandleFunc(reportingPath, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	client := newTestClient(t, mux)
	t.Cleanup(func() { close(release) })

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := client.FetchTransactions(ctx, "tok", testQuery(t))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
