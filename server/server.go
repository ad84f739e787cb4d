// Package server exposes the market data gateway over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/etnz/marketgate"
	"github.com/etnz/marketgate/gateway"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
)

// Backend answers the market data requests, *gateway.Markets in production.
type Backend interface {
	Snapshots(ctx context.Context, symbols []string, extended bool) (*marketgate.SnapshotResult, error)
	Quotes(ctx context.Context, symbols []string) (map[string]marketgate.Quote, error)
	Bars(ctx context.Context, symbols []string, q marketgate.BarsQuery) (map[string][]marketgate.Bar, error)
	Stats() gateway.MarketsStats
	Forex(ctx context.Context, pair string) (marketgate.ForexRate, error)
	Crypto(ctx context.Context, symbol string) (marketgate.CryptoPrice, error)
	FearGreed(ctx context.Context) (marketgate.FearGreed, error)
}

// DefaultBarsDays is the bars history length when the request does not say.
const DefaultBarsDays = 7

// Option customizes a Server.
type Option func(*Server)

// WithMetrics serves h on /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithLogger sets the logger, defaults to the logrus standard logger.
func WithLogger(l log.FieldLogger) Option {
	return func(s *Server) { s.log = l }
}

// Server is the REST surface of a Backend.
type Server struct {
	backend Backend
	metrics http.Handler
	log     log.FieldLogger
	now     func() time.Time
	router  chi.Router
}

// New returns a Server for b.
func New(b Backend, opts ...Option) *Server {
	s := &Server{
		backend: b,
		log:     log.StandardLogger(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithField("component", "server")
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/stats", s.handleStats)
		r.Route("/stocks", func(r chi.Router) {
			r.Get("/snapshots", s.handleSnapshots)
			r.Get("/latest", s.handleLatest)
			r.Get("/bars", s.handleBars)
		})
		r.Get("/forex/{pair}", s.handleForex)
		r.Get("/crypto/{symbol}", s.handleCrypto)
		r.Get("/market/fear-greed", s.handleFearGreed)
	})
	return r
}

// Handler returns the HTTP handler of the server.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is done, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Warnf("shutdown: %v", err)
		}
	}()

	s.log.Infof("listening on %s", ln.Addr())
	if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.WithFields(log.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"elapsed":    time.Since(start),
			"request_id": middleware.GetReqID(r.Context()),
		}).Debug("request")
	})
}

func (s *Server) handleSnapshots(w http.ResponseWriter, r *http.Request) {
	symbols := marketgate.ParseSymbols(r.URL.Query().Get("symbols"))
	if len(symbols) == 0 {
		writeJSON(w, http.StatusOK, marketgate.NewSnapshotResult())
		return
	}
	extended := r.URL.Query().Get("include_premarket") == "true"
	res, err := s.backend.Snapshots(r.Context(), symbols, extended)
	if err != nil {
		s.writeError(w, "cannot fetch snapshots", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	symbols := marketgate.ParseSymbols(r.URL.Query().Get("symbols"))
	if len(symbols) == 0 {
		writeJSON(w, http.StatusOK, map[string]marketgate.Quote{})
		return
	}
	quotes, err := s.backend.Quotes(r.Context(), symbols)
	if err != nil {
		s.writeError(w, "cannot fetch quotes", err)
		return
	}
	writeJSON(w, http.StatusOK, quotes)
}

type barsResponse struct {
	Bars map[string][]marketgate.Bar `json:"bars"`
}

func (s *Server) handleBars(w http.ResponseWriter, r *http.Request) {
	symbols := marketgate.ParseSymbols(r.URL.Query().Get("symbols"))
	if len(symbols) == 0 {
		writeJSON(w, http.StatusOK, barsResponse{Bars: map[string][]marketgate.Bar{}})
		return
	}
	days := DefaultBarsDays
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("invalid days %q", v)})
			return
		}
		days = n
	}
	bars, err := s.backend.Bars(r.Context(), symbols, marketgate.LastDays(days, s.now()))
	if err != nil {
		s.writeError(w, "cannot fetch bars", err)
		return
	}
	writeJSON(w, http.StatusOK, barsResponse{Bars: bars})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.backend.Stats())
}

func (s *Server) handleForex(w http.ResponseWriter, r *http.Request) {
	pair := strings.ToUpper(chi.URLParam(r, "pair"))
	switch marketgate.Classify(pair) {
	case marketgate.Forex, marketgate.DollarIndex:
	default:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("%q is not a currency pair", pair)})
		return
	}
	rate, err := s.backend.Forex(r.Context(), pair)
	if err != nil {
		s.writeError(w, "cannot fetch forex rate", err)
		return
	}
	writeJSON(w, http.StatusOK, rate)
}

func (s *Server) handleCrypto(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(chi.URLParam(r, "symbol"))
	// "bitcoin" as well as "BTCUSD"
	switch symbol {
	case "BITCOIN":
		symbol = "BTC"
	case "ETHEREUM":
		symbol = "ETH"
	}
	if _, ok := marketgate.CryptoID(symbol); !ok {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("unsupported coin %q", symbol)})
		return
	}
	price, err := s.backend.Crypto(r.Context(), symbol)
	if err != nil {
		s.writeError(w, "cannot fetch crypto price", err)
		return
	}
	writeJSON(w, http.StatusOK, price)
}

func (s *Server) handleFearGreed(w http.ResponseWriter, r *http.Request) {
	fg, err := s.backend.FearGreed(r.Context())
	if err != nil {
		s.writeError(w, "cannot fetch fear & greed index", err)
		return
	}
	writeJSON(w, http.StatusOK, fg)
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// writeError maps err to a status: 503 when the provider is not configured,
// 429 when it is throttling us, 502 otherwise.
func (s *Server) writeError(w http.ResponseWriter, msg string, err error) {
	status := http.StatusBadGateway
	if errors.Is(err, marketgate.ErrNotConfigured) {
		status = http.StatusServiceUnavailable
	} else if rl, ok := marketgate.IsRateLimited(err); ok {
		status = http.StatusTooManyRequests
		if rl.RetryAfter > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(rl.RetryAfter.Round(time.Second).Seconds())))
		}
	}
	s.log.Warnf("%s: %v", msg, err)
	writeJSON(w, status, errorResponse{Error: msg, Details: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
