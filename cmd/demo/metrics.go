package main

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/db47h/grender"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// statsHandler serves the stats of the last flushed frame.
type statsHandler struct {
	m     sync.Mutex
	stats grender.FrameStats
}

func (h *statsHandler) set(s grender.FrameStats) {
	h.m.Lock()
	h.stats = s
	h.m.Unlock()
}

func (h *statsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.m.Lock()
	s := h.stats
	h.m.Unlock()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(&s)
}

func newRouter(reg *prometheus.Registry, stats http.Handler) *mux.Router {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Methods("GET")
	r.Handle("/stats", stats).Methods("GET")
	return r
}

// serveMetrics serves r on addr until ctx is done.
func serveMetrics(ctx context.Context, addr string, r http.Handler, log *zap.Logger) {
	srv := &http.Server{Addr: addr, Handler: r}
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(sctx)
	}()
	go func() {
		log.Info("Serving metrics", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Metrics server failed", zap.Error(err))
		}
	}()
}
