package metrics

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/palmier/internal/domain/models"
)

func TestObserveLedgerOutcomes(t *testing.T) {
	r := New()

	r.ObserveLedger("create", nil, 3*time.Millisecond)
	r.ObserveLedger("create", &models.InsufficientStockError{
		ProductionID: 1,
		Requested:    decimal.NewFromInt(10),
		Available:    decimal.NewFromInt(5),
	}, time.Millisecond)
	r.ObserveLedger("delete", fmt.Errorf("vente 9: %w", models.ErrNotFound), time.Millisecond)
	r.ObserveLedger("update", errors.New("connection reset"), time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.ledgerOps.WithLabelValues("create", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.ledgerOps.WithLabelValues("create", OutcomeRejected)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.ledgerOps.WithLabelValues("delete", OutcomeRejected)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.ledgerOps.WithLabelValues("update", OutcomeError)))
}

func TestHandlerExposesHTTPMetrics(t *testing.T) {
	r := New()
	r.ObserveHTTP(http.MethodPost, "/api/ventes", http.StatusCreated, 10*time.Millisecond)
	r.ObserveHTTP(http.MethodGet, "", http.StatusNotFound, time.Millisecond)

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `palmier_http_requests_total{method="POST",route="/api/ventes",status="201"} 1`)
	assert.Contains(t, string(body), `route="unmatched"`)
}
