package main

// server.go – read-only HTTP explorer API (§1: "a read-only explorer
// surface, not a wallet or a node").
//
// Ported from a gorilla/mux route table (loggingMiddleware, writeJSON
// helper) onto go-chi/chi/v5.

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"
)

// rateLimit caps the explorer API at reqsPerSecond per process, shedding
// load with 429 rather than letting a single caller starve the others —
// this is a single read-only service, not a per-client quota.
func rateLimit(reqsPerSecond float64, burst int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(rate.Limit(reqsPerSecond), burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Server exposes a Nexus's chains over a small HTTP API.
type Server struct {
	router     chi.Router
	svc        ledgerService
	httpServer *http.Server
}

// NewServer constructs the router and HTTP server bound to addr.
func NewServer(addr string, svc ledgerService) *Server {
	s := &Server{router: chi.NewRouter(), svc: svc}
	s.routes()
	s.httpServer = &http.Server{Addr: addr, Handler: s.router}
	return s
}

func (s *Server) Start() error { return s.httpServer.ListenAndServe() }

func (s *Server) routes() {
	s.router.Use(middleware.Logger)
	s.router.Use(rateLimit(50, 20))
	s.router.Get("/api/info", s.handleInfo)
	s.router.Get("/api/chains/{chain}/blocks", s.handleBlocks)
	s.router.Get("/api/chains/{chain}/blocks/{height}", s.handleBlock)
	s.router.Get("/api/chains/{chain}/tx/{hash}", s.handleTx)
	s.router.Get("/api/chains/{chain}/balance/{token}/{address}", s.handleBalance)
	s.router.Handle("/*", http.FileServer(http.Dir("GUI/explorer")))
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.svc.Info())
}

func (s *Server) handleBlocks(w http.ResponseWriter, r *http.Request) {
	chainName := chi.URLParam(r, "chain")
	count := 10
	if raw := r.URL.Query().Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "bad count", http.StatusBadRequest)
			return
		}
		count = n
	}
	if count <= 0 || count > 100 {
		http.Error(w, "count out of range", http.StatusBadRequest)
		return
	}
	out, err := s.svc.LatestBlocks(chainName, count)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, out)
}

func (s *Server) handleBlock(w http.ResponseWriter, r *http.Request) {
	chainName := chi.URLParam(r, "chain")
	height, err := strconv.ParseUint(chi.URLParam(r, "height"), 10, 64)
	if err != nil {
		http.Error(w, "bad height", http.StatusBadRequest)
		return
	}
	blk, err := s.svc.BlockByHeight(chainName, height)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, blk)
}

func (s *Server) handleTx(w http.ResponseWriter, r *http.Request) {
	chainName := chi.URLParam(r, "chain")
	hashHex := chi.URLParam(r, "hash")
	tx, err := s.svc.TxByHash(chainName, hashHex)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, tx)
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	chainName := chi.URLParam(r, "chain")
	token := chi.URLParam(r, "token")
	address := chi.URLParam(r, "address")
	bal, err := s.svc.Balance(chainName, token, address)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, map[string]interface{}{"balance": bal.String()})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	_ = enc.Encode(v)
}
