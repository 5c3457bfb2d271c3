package workers

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/rs/zerolog"

	"gohtlcbridge/config"
	"gohtlcbridge/workers/handlers"
)

// Worker_HTTP serves the swap API until ctx is cancelled, then shuts
// the server down gracefully. It runs on the main goroutine.
func Worker_HTTP(ctx context.Context, h *handlers.Handler, log zerolog.Logger) {
	log = log.With().Str("component", "http").Logger()
	log.Info().Msg("starting HTTP service")

	r := chi.NewRouter()
	r.Use(middleware.Logger)

	r.Options("/*", CORSHeaders)

	r.Get("/state", h.State)

	r.Post("/swap", h.CreateSwap)
	r.Get("/swap/{orderID}", h.GetSwap)
	r.Post("/swap/{orderID}/execute", h.ExecuteSwap)
	r.Post("/swap/{orderID}/refund", h.RefundSwap)

	r.Get("/swaps", h.ListSwaps)

	var server *http.Server

	if config.Config.Server.UseSSL {
		cert, _ := tls.LoadX509KeyPair("certchain.pem", "privatekey.pem")
		server = &http.Server{
			Addr:    ":443",
			Handler: r,
			TLSConfig: &tls.Config{
				Certificates: []tls.Certificate{cert},
				MinVersion:   tls.VersionTLS12,
			},
		}
	} else {
		server = &http.Server{
			Addr:    fmt.Sprintf(":%d", config.Config.Server.Port),
			Handler: r,
		}
	}

	go func() {
		if config.Config.Server.UseSSL {
			if err := server.ListenAndServeTLS("", ""); err != nil && err != http.ErrServerClosed {
				log.Fatal().Err(err).Msg("error listening")
			}
		} else {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatal().Err(err).Msg("error listening")
			}
		}
	}()
	log.Info().Str("addr", server.Addr).Msg("HTTP service started")

	<-ctx.Done()
	log.Info().Msg("HTTP service stopping")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("HTTP service shutdown error")
	}
	log.Info().Msg("HTTP service shutdown normal")
}

func CORSHeaders(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
	w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, Origin, X-Requested-With")
}
