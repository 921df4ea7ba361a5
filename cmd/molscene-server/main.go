package main

import (
	"net/http"
)

func main() {
	cfg := loadServerConfig()
	logger := NewLogger(cfg.LogLevel)

	srv := NewServer(cfg, logger)
	defer srv.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", srv.handleHealth)
	mux.HandleFunc("/scene/", srv.handleSceneRoutes)
	mux.HandleFunc("/saved", srv.handleSavedRoutes)
	mux.HandleFunc("/saved/", srv.handleSavedRoutes)
	mux.HandleFunc("/panels", srv.handlePanelRoutes)
	mux.Handle("/metrics", srv.metrics.handler())

	logger.Infof("molscene-server listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, mux); err != nil {
		logger.Fatalf("server stopped: %v", err)
	}
}
