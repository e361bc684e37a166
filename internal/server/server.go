package server

import (
	"net/http"
	"time"

	"musictogether/internal/config"
)

func NewHTTPServer(cfg config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Rest.Address,
		Handler:           handler,
		ReadHeaderTimeout: time.Duration(cfg.Rest.ReadHeaderTimeout) * time.Second,
		IdleTimeout:       time.Duration(cfg.Rest.IdleTimeout) * time.Second,
	}
}
