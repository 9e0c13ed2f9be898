package bootstrap

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"go-storefront/internal/search"
	"go-storefront/internal/testutil"
	"go-storefront/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOpenSearchDisabledUsesDatabase(t *testing.T) {
	db := testutil.DB(t)
	backend, err := openSearch(context.Background(), config.ElasticsearchConfig{}, db, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &search.DBSearcher{}, backend)
}

// newIndexServer 模拟一个还没有 products 索引的 Elasticsearch, 返回收到的 _bulk 请求体
func newIndexServer(t *testing.T) (string, func() []string) {
	t.Helper()
	var (
		mu    sync.Mutex
		bulks []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/":
			_, _ = io.WriteString(w, `{"version":{"number":"7.17.0"}}`)
		case r.Method == http.MethodHead && r.URL.Path == "/products":
			w.WriteHeader(http.StatusNotFound)
		case r.Method == http.MethodPut && r.URL.Path == "/products":
			_, _ = io.WriteString(w, `{"acknowledged":true,"index":"products"}`)
		case r.Method == http.MethodPost && r.URL.Path == "/products/_bulk":
			body, _ := io.ReadAll(r.Body)
			mu.Lock()
			bulks = append(bulks, string(body))
			mu.Unlock()
			_, _ = io.WriteString(w, `{"took":1,"errors":false,"items":[]}`)
		default:
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":"unexpected request"}`)
		}
	}))
	t.Cleanup(srv.Close)
	return srv.URL, func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), bulks...)
	}
}

func TestOpenSearchBackfillsNewIndex(t *testing.T) {
	db := testutil.DB(t)
	testutil.Product(t, db, testutil.ProductSpec{SKU: "SKU-A", Title: "Green Tea"})
	testutil.Product(t, db, testutil.ProductSpec{SKU: "SKU-B", Title: "Black Tea"})
	url, bulks := newIndexServer(t)

	backend, err := openSearch(context.Background(), config.ElasticsearchConfig{Enabled: true, URL: url, Index: "products"}, db, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &search.ElasticSearcher{}, backend)

	sent := bulks()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0], `"_id":"SKU-A"`)
	assert.Contains(t, sent[0], `"_id":"SKU-B"`)
	assert.Contains(t, sent[0], `"title_lower":"black tea"`)
}

func TestInitRateLimitDisabled(t *testing.T) {
	assert.NoError(t, InitRateLimit(config.SentinelConfig{Enabled: false}))
}

func TestServeStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	err := Serve(ctx, config.ServiceConfig{Name: "test", Port: 0}, config.ConsulConfig{},
		http.NotFoundHandler(), zap.NewNop())
	assert.NoError(t, err)
}
