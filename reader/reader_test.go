package reader

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quoteflow/config"
	"quoteflow/models"
)

func testConfig() *config.Config {
	return &config.Config{
		Reader: config.ReaderConfig{
			Timeout:   2 * time.Second,
			RateLimit: config.RateLimitConfig{RequestsPerSecond: 100, BurstSize: 10},
		},
	}
}

func TestBitkubFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "THB_USDT", r.URL.Query().Get("sym"))
		assert.Equal(t, "5", r.URL.Query().Get("lmt"))
		io.WriteString(w, `{"bids":[[31.10,100],[31.05,50]],"asks":[[31.30,80]]}`)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.Source.Bitkub = config.DepthSourceConfig{Enabled: true, URL: srv.URL, Symbol: "THB_USDT", Limit: 5}

	rec, err := NewBitkub(cfg).Fetch(context.Background())
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, models.SourceBitkub, rec.Source)
	assert.Equal(t, "THB_USDT", rec.Symbol)
	require.NotNil(t, rec.Price)
	assert.Equal(t, "31.2", rec.Price.String())
	require.NotNil(t, rec.OrderBook)
	assert.Len(t, rec.OrderBook.Bids, 2)
	assert.JSONEq(t, `{"bids":[[31.10,100],[31.05,50]],"asks":[[31.30,80]]}`, string(rec.Raw))
}

func TestBinanceTHFetchStringLevels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "USDTTHB", r.URL.Query().Get("symbol"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		io.WriteString(w, `{"bids":[["31.10","100"]],"asks":[["31.30","80"]]}`)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.Source.BinanceTH = config.DepthSourceConfig{Enabled: true, URL: srv.URL, Symbol: "USDTTHB", Limit: 5}

	rec, err := NewBinanceTH(cfg).Fetch(context.Background())
	require.NoError(t, err)
	require.NotNil(t, rec.Price)
	assert.Equal(t, "31.2", rec.Price.String())
}

func TestDepthFetchEmptyAsksYieldsPartialRecord(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"bids":[["31.10","100"]],"asks":[]}`)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.Source.BinanceTH = config.DepthSourceConfig{Enabled: true, URL: srv.URL, Symbol: "USDTTHB", Limit: 5}

	rec, err := NewBinanceTH(cfg).Fetch(context.Background())
	require.NoError(t, err)
	assert.Nil(t, rec.Price)
	assert.Nil(t, rec.Bid)
	assert.Nil(t, rec.Ask)
	require.NotNil(t, rec.OrderBook)
	assert.Empty(t, rec.OrderBook.Asks)
}

func TestDepthFetchTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.Source.Bitkub = config.DepthSourceConfig{Enabled: true, URL: srv.URL, Symbol: "THB_USDT", Limit: 5}

	_, err := NewBitkub(cfg).Fetch(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
}

func TestMaxbitFetchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "MAXBITOTC", r.Header.Get("secret-api"))
		assert.Equal(t, "test-key", r.Header.Get("secret-key"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "group-1", body["groupid"])
		assert.Equal(t, "usdt", body["symbol"])

		io.WriteString(w, `{"responseCode":"000","result":{"bid":31.15,"ask":31.25}}`)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.Source.Maxbit = config.MaxbitSourceConfig{
		Enabled: true, URL: srv.URL, Symbol: "usdt",
		GroupID: "group-1", SecretAPI: "MAXBITOTC", SecretKey: "test-key",
	}

	rec, err := NewMaxbit(cfg).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.SourceMaxbit, rec.Source)
	assert.Equal(t, "USDT", rec.Symbol)
	require.NotNil(t, rec.Price)
	assert.Equal(t, "31.2", rec.Price.String())
	assert.Nil(t, rec.OrderBook)
}

func TestMaxbitFetchRejectedEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"responseCode":"401","result":null}`)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.Source.Maxbit = config.MaxbitSourceConfig{
		Enabled: true, URL: srv.URL, Symbol: "usdt",
		GroupID: "g", SecretAPI: "a", SecretKey: "k",
	}

	rec, err := NewMaxbit(cfg).Fetch(context.Background())
	assert.Nil(t, rec)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRejected)
	assert.Contains(t, err.Error(), "401")
}

func TestFXFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"rates":{"THB":35.5,"EUR":0.92}}`)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.Source.FX = config.FXSourceConfig{Enabled: true, URL: srv.URL, Symbol: "USD_THB", Currency: "THB"}

	rec, err := NewFX(cfg).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.SourceFX, rec.Source)
	assert.Equal(t, "USD_THB", rec.Symbol)
	require.NotNil(t, rec.Price)
	assert.Equal(t, "35.5", rec.Price.String())
	assert.Nil(t, rec.Bid)
	assert.Nil(t, rec.Ask)
}

func TestFXFetchMissingCurrency(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"rates":{"EUR":0.92}}`)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.Source.FX = config.FXSourceConfig{Enabled: true, URL: srv.URL, Symbol: "USD_THB", Currency: "THB"}

	_, err := NewFX(cfg).Fetch(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestFetchHonorsContextTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.Source.Bitkub = config.DepthSourceConfig{Enabled: true, URL: srv.URL, Symbol: "THB_USDT", Limit: 5}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewBitkub(cfg).Fetch(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
}
