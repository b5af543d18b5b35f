package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"leadfinder/models"
	"leadfinder/services"
	"leadfinder/storage"
	"leadfinder/utils"
)

// HarvestRunner is the slice of the harvester the façade needs.
type HarvestRunner interface {
	Run(job models.SearchJob) ([]*models.LeadRecord, error)
}

// Server is a thin JSON façade over the harvest pipeline and the lead
// store. It makes no decisions of its own beyond input validation.
type Server struct {
	logger   *utils.Logger
	runner   HarvestRunner
	store    storage.LeadStore
	stats    *services.StatsService
	enricher *services.Enricher // nil when enrichment is disabled
}

func NewServer(logger *utils.Logger, runner HarvestRunner, store storage.LeadStore,
	stats *services.StatsService, enricher *services.Enricher) *Server {
	return &Server{
		logger:   logger,
		runner:   runner,
		store:    store,
		stats:    stats,
		enricher: enricher,
	}
}

// Routes returns the handler with all endpoints registered.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/generate_leads", s.handleGenerateLeads)
	mux.HandleFunc("/fetch_leads", s.handleFetchLeads)
	mux.HandleFunc("/clear_leads", s.handleClearLeads)
	mux.HandleFunc("/update_lead", s.handleUpdateLead)
	mux.HandleFunc("/stats", s.handleStats)
	return mux
}

// ListenAndServe blocks serving the API on the given port.
func (s *Server) ListenAndServe(port int) error {
	addr := fmt.Sprintf(":%d", port)
	s.logger.Info("[api] Listening on %s", addr)
	return http.ListenAndServe(addr, s.Routes())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

type generateRequest struct {
	Niche       string `json:"niche"`
	City        string `json:"city"`
	Province    string `json:"province"`
	TargetLeads int    `json:"target_leads"`
}

func (s *Server) handleGenerateLeads(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.TargetLeads == 0 {
		req.TargetLeads = 10
	}

	job := models.SearchJob{
		Niche:       req.Niche,
		City:        req.City,
		Region:      req.Province,
		TargetCount: req.TargetLeads,
	}

	s.logger.Info("[api] Generating leads for %q in %s, %s", job.Niche, job.City, job.Region)

	leads, err := s.runner.Run(job)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if s.enricher != nil {
		s.enricher.EnrichAll(leads)
		for _, l := range leads {
			if l.ContactEmail == "" {
				continue
			}
			if err := s.store.Upsert(l); err != nil {
				s.logger.Error("[api] Persisting enriched lead %s: %v", l.BusinessName, err)
			}
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"leads_found": len(leads),
		"leads":       leads,
		"message":     fmt.Sprintf("Successfully generated %d leads", len(leads)),
	})
}

func (s *Server) handleFetchLeads(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET required")
		return
	}

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	leads, err := s.store.List(limit)
	if err != nil {
		s.logger.Error("[api] Fetching leads: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to fetch leads")
		return
	}
	if leads == nil {
		leads = []*models.LeadRecord{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"leads":   leads,
	})
}

func (s *Server) handleClearLeads(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	if err := s.store.Clear(); err != nil {
		s.logger.Error("[api] Clearing leads: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to clear leads")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

type updateLeadRequest struct {
	BusinessName string            `json:"business_name"`
	City         string            `json:"city"`
	Called       bool              `json:"called"`
	DealStatus   models.DealStatus `json:"deal_status"`
	Notes        string            `json:"notes"`
}

func (s *Server) handleUpdateLead(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	var req updateLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.BusinessName == "" || req.City == "" {
		writeError(w, http.StatusBadRequest, "business_name and city are required")
		return
	}
	if req.DealStatus == "" {
		req.DealStatus = models.DealNotContacted
	}
	if !models.ValidDealStatus(req.DealStatus) {
		writeError(w, http.StatusBadRequest, "unknown deal_status")
		return
	}

	if err := s.store.UpdateOutreach(req.BusinessName, req.City, req.Called, req.DealStatus, req.Notes); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET required")
		return
	}

	leads, err := s.store.List(10000)
	if err != nil {
		s.logger.Error("[api] Fetching leads for stats: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}

	writeJSON(w, http.StatusOK, s.stats.Compute(leads))
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"error":   msg,
	})
}
