package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"portfolioBench/internal/finance"
	"portfolioBench/internal/portfolio"
	"portfolioBench/internal/storage"
)

const maxBodyBytes = 1 << 20

// performanceRequest is a portfolio plus an optional starting NAV.
type performanceRequest struct {
	portfolio.Portfolio
	TotalNAV float64 `json:"total_nav"`
}

type saveResponse struct {
	Message   string              `json:"message"`
	Portfolio portfolio.Portfolio `json:"portfolio"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"message": "Stock Portfolio Performance API",
		"status":  "running",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// handleGetDefault serves the saved default, or the built-in one when none
// was saved.
func (s *Server) handleGetDefault(w http.ResponseWriter, r *http.Request) {
	p, err := s.repo.LoadDefault(r.Context())
	switch {
	case errors.Is(err, storage.ErrNotFound):
		p = portfolio.DefaultPortfolio()
	case err != nil:
		s.log.Error().Err(err).Msg("load default portfolio")
		s.writeDetail(w, http.StatusInternalServerError, fmt.Sprintf("Error loading default portfolio: %v", err))
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleSetDefault(w http.ResponseWriter, r *http.Request) {
	var p portfolio.Portfolio
	if !s.decode(w, r, &p) {
		return
	}
	for i := range p.Holdings {
		p.Holdings[i].Symbol = portfolio.NormalizeSymbol(p.Holdings[i].Symbol)
	}
	if total := p.Total(); total > portfolio.MaxAllocation {
		s.writeDetail(w, http.StatusBadRequest, overAllocatedDetail(total))
		return
	}

	if err := s.repo.SaveDefault(r.Context(), p); err != nil {
		s.log.Error().Err(err).Msg("save default portfolio")
		s.writeDetail(w, http.StatusInternalServerError, "Failed to save portfolio")
		return
	}
	s.writeJSON(w, http.StatusOK, saveResponse{Message: "Default portfolio saved successfully", Portfolio: p})
}

func (s *Server) handlePerformance(w http.ResponseWriter, r *http.Request) {
	days := portfolio.DefaultWindow.Days()
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			s.writeDetail(w, http.StatusUnprocessableEntity, fmt.Sprintf("invalid days %q", raw))
			return
		}
		days = n
	}

	var req performanceRequest
	if !s.decode(w, r, &req) {
		return
	}
	if len(req.Holdings) == 0 {
		s.writeDetail(w, http.StatusUnprocessableEntity, "stocks must not be empty")
		return
	}

	res, err := s.engine.Performance(r.Context(), req.Portfolio, days, req.TotalNAV)
	var over *portfolio.OverAllocatedError
	switch {
	case err == nil:
		s.writeJSON(w, http.StatusOK, res)
	case errors.As(err, &over):
		s.writeDetail(w, http.StatusBadRequest, overAllocatedDetail(over.Total))
	case errors.Is(err, finance.ErrNoBenchmarkData), errors.Is(err, finance.ErrNoPortfolioData):
		s.writeDetail(w, http.StatusNotFound, err.Error())
	default:
		s.log.Error().Err(err).Int("days", days).Msg("performance failed")
		s.writeDetail(w, http.StatusInternalServerError, fmt.Sprintf("Error calculating portfolio performance: %v", err))
	}
}

func (s *Server) handleStockInfo(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	q, err := s.engine.Quote(r.Context(), symbol)
	switch {
	case err == nil:
		s.writeJSON(w, http.StatusOK, q)
	case errors.Is(err, finance.ErrNoData):
		s.writeDetail(w, http.StatusNotFound, fmt.Sprintf("No data found for %s", portfolio.NormalizeSymbol(symbol)))
	default:
		s.writeDetail(w, http.StatusInternalServerError, fmt.Sprintf("Error fetching stock info: %v", err))
	}
}

func overAllocatedDetail(total float64) string {
	return fmt.Sprintf("Total percentage (%s%%) exceeds 100%%", strconv.FormatFloat(total, 'f', -1, 64))
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		s.writeDetail(w, http.StatusUnprocessableEntity, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeDetail writes an error body in the {"detail": "..."} shape clients parse.
func (s *Server) writeDetail(w http.ResponseWriter, status int, detail string) {
	s.writeJSON(w, status, map[string]string{"detail": detail})
}
