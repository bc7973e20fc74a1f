// Package api provides the HTTP REST API server for QuantBrief.
//
// It exposes endpoints for stock analysis, quotes, news aggregation,
// text summarization, sentiment extraction, ticker comparison, and
// PDF document analysis.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/quantbrief/quantbrief/internal/analyzer"
	"github.com/quantbrief/quantbrief/internal/analyzer/prompts"
	"github.com/quantbrief/quantbrief/internal/config"
	"github.com/quantbrief/quantbrief/internal/market"
	"github.com/quantbrief/quantbrief/internal/news"
	"github.com/quantbrief/quantbrief/pkg/utils"
)

// maxUploadBytes caps PDF uploads at 10 MiB.
const maxUploadBytes = 10 << 20

// Server is the HTTP API server.
type Server struct {
	router   chi.Router
	cfg      *config.Config
	log      *slog.Logger
	analyzer *analyzer.Analyzer
	market   market.Provider
	news     *news.Aggregator
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg *config.Config, logger *slog.Logger, a *analyzer.Analyzer, provider market.Provider, agg *news.Aggregator) *Server {
	srv := &Server{
		cfg:      cfg,
		log:      logger,
		analyzer: a,
		market:   provider,
		news:     agg,
	}
	srv.router = srv.buildRouter()
	return srv
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ListenAndServe starts the HTTP server with graceful shutdown.
func (s *Server) ListenAndServe(addr string) error {
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("http server error", "error", err)
			os.Exit(1)
		}
	}()

	s.log.Info("api server listening", "addr", addr)
	<-done
	s.log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return httpSrv.Shutdown(ctx)
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	// CORS
	origins := []string{"*"}
	if len(s.cfg.API.CORSOrigins) > 0 {
		origins = s.cfg.API.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", s.handleHealth)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health (also available at /health)
		r.Get("/health", s.handleHealth)

		// Analysis
		r.Post("/analyze", s.handleAnalyze)
		r.Post("/compare", s.handleCompare)

		// Quotes
		r.Get("/quote/{ticker}", s.handleQuote)

		// News
		r.Get("/news/search", s.handleNewsSearch)
		r.Get("/news/{ticker}", s.handleNews)
		r.Get("/market/news", s.handleMarketNews)
		r.Get("/market/summary", s.handleMarketSummary)

		// Text analysis
		r.Post("/summarize", s.handleSummarize)
		r.Post("/sentiment", s.handleSentiment)

		// Documents
		r.Post("/documents/analyze", s.handleDocumentAnalyze)
		r.Post("/documents/compare", s.handleDocumentCompare)

		// Discovery
		r.Get("/trending", s.handleTrending)
		r.Get("/search", s.handleSearch)

		// Configuration
		r.Get("/config/keys", s.handleGetConfigKeys)
	})

	return r
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// TickerRequest is the body for POST /api/v1/analyze.
type TickerRequest struct {
	Ticker string `json:"ticker"`
}

// TextRequest is the body for POST /api/v1/summarize and /api/v1/sentiment.
type TextRequest struct {
	Text string `json:"text"`
}

// CompareRequest is the body for POST /api/v1/compare.
type CompareRequest struct {
	Tickers []string `json:"tickers"`
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":    "healthy",
			"llm_model": s.cfg.LLM.Model,
			"services":  []string{"stock_data", "news_collector", "llm_analyzer"},
		},
	})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req TickerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Ticker == "" {
		s.writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	ticker := utils.NormalizeTicker(req.Ticker)
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	result, err := s.analyzer.AnalyzeStock(ctx, ticker)
	if err != nil {
		if errors.Is(err, market.ErrTickerNotFound) {
			s.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    result,
	})
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	if ticker == "" {
		s.writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	ticker = utils.NormalizeTicker(ticker)
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	quote, err := s.market.GetQuote(ctx, ticker)
	if err != nil {
		if errors.Is(err, market.ErrTickerNotFound) {
			s.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    quote,
	})
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	ticker := chi.URLParam(r, "ticker")
	if ticker == "" {
		s.writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	ticker = utils.NormalizeTicker(ticker)
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	items := s.news.GetNews(ctx, ticker, s.newsLimit(r))
	s.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"ticker": ticker,
			"news":   items,
			"count":  len(items),
		},
	})
}

func (s *Server) handleMarketNews(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	items := s.news.GetMarketNews(ctx, s.newsLimit(r))
	s.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"news":  items,
			"count": len(items),
		},
	})
}

func (s *Server) handleMarketSummary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	s.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    s.analyzer.MarketSummary(ctx),
	})
}

func (s *Server) handleNewsSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		s.writeError(w, http.StatusBadRequest, "q is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	items := s.news.SearchNews(ctx, query, s.newsLimit(r))
	s.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"query": query,
			"news":  items,
			"count": len(items),
		},
	})
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	var req TextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Text == "" {
		s.writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	s.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"summary": s.analyzer.Summarize(ctx, req.Text),
		},
	})
}

func (s *Server) handleSentiment(w http.ResponseWriter, r *http.Request) {
	var req TextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Text == "" {
		s.writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	s.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"sentiment": s.analyzer.TextSentiment(ctx, req.Text),
		},
	})
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req CompareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Tickers) < 2 {
		s.writeError(w, http.StatusBadRequest, "at least two tickers are required")
		return
	}

	tickers := make([]string, len(req.Tickers))
	for i, t := range req.Tickers {
		tickers[i] = utils.NormalizeTicker(t)
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	narrative, quotes, err := s.analyzer.Compare(ctx, tickers)
	if err != nil {
		if errors.Is(err, market.ErrTickerNotFound) {
			s.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"comparison": narrative,
			"quotes":     quotes,
		},
	})
}

func (s *Server) handleDocumentAnalyze(w http.ResponseWriter, r *http.Request) {
	data, status, errMsg := readPDFUpload(r)
	if errMsg != "" {
		s.writeError(w, status, errMsg)
		return
	}

	intent := prompts.ParseIntent(r.FormValue("analysis_type"))

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	result := s.analyzer.AnalyzeDocument(ctx, data, intent)
	s.writeJSON(w, http.StatusOK, APIResponse{
		Success: result.Success,
		Data:    result,
		Error:   result.Error,
	})
}

func (s *Server) handleDocumentCompare(w http.ResponseWriter, r *http.Request) {
	data, status, errMsg := readPDFUpload(r)
	if errMsg != "" {
		s.writeError(w, status, errMsg)
		return
	}

	ticker := r.FormValue("ticker")
	if ticker == "" {
		s.writeError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Minute)
	defer cancel()

	result, err := s.analyzer.AnalyzeDocumentWithStock(ctx, data, utils.NormalizeTicker(ticker))
	if err != nil {
		if errors.Is(err, market.ErrTickerNotFound) {
			s.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, APIResponse{
		Success: result.Success,
		Data:    result,
		Error:   result.Error,
	})
}

func (s *Server) handleTrending(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"trending": utils.TrendingTickers,
			"topics":   s.news.TrendingTopics(),
		},
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		s.writeError(w, http.StatusBadRequest, "q is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	quotes := s.analyzer.SearchTicker(ctx, query)
	s.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"query":   query,
			"results": quotes,
			"count":   len(quotes),
		},
	})
}

// ============================================================
// Helpers
// ============================================================

// newsLimit reads the "limit" query parameter, falling back to the
// configured default.
func (s *Server) newsLimit(r *http.Request) int {
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return n
		}
	}
	return s.cfg.News.DefaultLimit
}

// readPDFUpload extracts the uploaded PDF bytes from a multipart form.
// A non-empty error message means the request should be rejected with
// the returned status code.
func readPDFUpload(r *http.Request) ([]byte, int, string) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, http.StatusBadRequest, "invalid multipart form"
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, http.StatusBadRequest, "file is required"
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
		return nil, http.StatusBadRequest, "only PDF files are supported"
	}

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		return nil, http.StatusBadRequest, "failed to read upload"
	}
	if len(data) == 0 {
		return nil, http.StatusBadRequest, "uploaded file is empty"
	}
	if len(data) > maxUploadBytes {
		return nil, http.StatusBadRequest, "file exceeds the 10 MB limit"
	}

	return data, http.StatusOK, ""
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("failed to write JSON response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, APIResponse{
		Success: false,
		Error:   msg,
	})
}
