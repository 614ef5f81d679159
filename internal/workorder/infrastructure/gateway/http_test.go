package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jqjjian/ad-workflow-sub001/internal/workorder/domain"
)

func newTestGateway(handler http.HandlerFunc) (*HTTPGateway, *httptest.Server) {
	srv := httptest.NewServer(handler)
	g := NewHTTPGateway(Config{
		AccountBaseURL: srv.URL,
		FundingBaseURL: srv.URL,
		AccessToken:    "test-token",
		Timeout:        2 * time.Second,
	})
	return g, srv
}

func TestSubmitStringCodeDialect(t *testing.T) {
	g, srv := newTestGateway(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-token", r.Header.Get("Access-Token"))
		assert.Equal(t, "trace-1", r.Header.Get("X-Trace-ID"))
		w.Write([]byte(`{"code":"0","message":"ok","data":{"taskId":"oe-123"}}`))
	})
	defer srv.Close()

	result, err := g.Submit(context.Background(), domain.EndpointAccountApplication, "trace-1", map[string]string{"name": "acct"})
	require.NoError(t, err)
	assert.Equal(t, domain.GatewayOutcomeSuccess, result.Outcome)
	assert.Equal(t, "oe-123", result.ExternalTaskID)
}

func TestSubmitNumericCodeDialect(t *testing.T) {
	g, srv := newTestGateway(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":0,"data":{"taskId":9981}}`))
	})
	defer srv.Close()

	result, err := g.Submit(context.Background(), domain.EndpointFunding, "trace-2", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.GatewayOutcomeSuccess, result.Outcome)
	assert.Equal(t, "9981", result.ExternalTaskID)
}

func TestSubmitSuccessFlagDialect(t *testing.T) {
	g, srv := newTestGateway(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"data":{"taskId":"oe-456"}}`))
	})
	defer srv.Close()

	result, err := g.Submit(context.Background(), domain.EndpointAccountUpdate, "trace-3", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.GatewayOutcomeSuccess, result.Outcome)
	assert.Equal(t, "oe-456", result.ExternalTaskID)
}

func TestSubmitBusinessFailure(t *testing.T) {
	g, srv := newTestGateway(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":"40001","message":"insufficient balance"}`))
	})
	defer srv.Close()

	result, err := g.Submit(context.Background(), domain.EndpointFunding, "trace-4", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.GatewayOutcomeFailed, result.Outcome)
	assert.Equal(t, "insufficient balance", result.ErrorMessage)
	assert.Contains(t, result.RawResponse, "40001")
}

func TestSubmitMalformedResponsePreservesRaw(t *testing.T) {
	g, srv := newTestGateway(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>502 Bad Gateway</html>`))
	})
	defer srv.Close()

	result, err := g.Submit(context.Background(), domain.EndpointAccountApplication, "trace-5", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.GatewayOutcomeMalformed, result.Outcome)
	assert.Equal(t, `<html>502 Bad Gateway</html>`, result.RawResponse)
	assert.NotEmpty(t, result.ErrorMessage)
}

func TestSubmitTimeoutBecomesFailed(t *testing.T) {
	g, srv := newTestGateway(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.Write([]byte(`{"code":"0"}`))
	})
	defer srv.Close()
	g.client.Timeout = 50 * time.Millisecond

	result, err := g.Submit(context.Background(), domain.EndpointFunding, "trace-6", nil)
	require.NoError(t, err)
	assert.Equal(t, domain.GatewayOutcomeFailed, result.Outcome)
	assert.NotEmpty(t, result.ErrorMessage)
}

func TestSubmitUnknownEndpointIsProgrammingError(t *testing.T) {
	g := NewHTTPGateway(Config{AccountBaseURL: "http://localhost:1"})

	_, err := g.Submit(context.Background(), domain.GatewayEndpoint("bogus"), "trace-7", nil)
	require.Error(t, err)
}
