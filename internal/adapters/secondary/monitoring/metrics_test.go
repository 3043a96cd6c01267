package monitoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/fredcamaral/slidecraft/internal/domain/entities"
	"github.com/fredcamaral/slidecraft/internal/domain/services"
)

func TestMetrics_Recorders(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ExportFinished("pdf", "partial", time.Second)
	m.SlideCaptured("raster", nil)
	m.SlideCaptured("raster", errors.New("boom"))
	m.GatewayRequest("generate-presentation", "success", time.Second)
	m.GatewayRetry("generate-presentation")
	m.HTTPRequest("GET", "/api/health", "200")
	m.ClientConnected()
	m.ClientConnected()
	m.ClientDisconnected()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ExportsTotal.WithLabelValues("pdf", "partial")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SlidesCaptured.WithLabelValues("raster", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GatewayRetries.WithLabelValues("generate-presentation")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WebSocketClients))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ExportFinished("pdf", "success", time.Second)
		m.SlideCaptured("raster", nil)
		m.GatewayRetry("x")
		m.WatchStore(context.Background(), nil)
	})
}

func TestMetrics_WatchStore(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	store := services.NewStore(nil, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m.WatchStore(ctx, store)
	store.Create(entities.PresentationData{Title: "Deck"})

	assert.Eventually(t, func() bool {
		return testutil.ToFloat64(m.StoreActions.WithLabelValues("create_presentation")) == 1
	}, time.Second, 10*time.Millisecond)
}
