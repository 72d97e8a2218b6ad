package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/relaycrm/relay/internal/company/auth"
	"github.com/relaycrm/relay/internal/company/controller"
	"github.com/relaycrm/relay/internal/company/db"
	e "github.com/relaycrm/relay/internal/company/errors"
	"github.com/relaycrm/relay/internal/company/models"
)

const maxUploadBytes = 10 << 20 // 10MB, matches the upload limit of the UI

// CompanyController defines the business logic interface the HTTP
// handlers invoke.
type CompanyController interface {
	ListCompanies(ctx context.Context, ownerID uuid.UUID, q db.ListQuery) (*controller.CompanyPage, error)
	GetCompany(ctx context.Context, ownerID, id uuid.UUID) (*models.Company, error)
	CreateCompany(ctx context.Context, ownerID uuid.UUID, company *models.Company) (*models.Company, error)
	UpdateCompanyManual(ctx context.Context, ownerID, id uuid.UUID, update *models.CompanyUpdate) (*models.Company, error)
	DeleteCompany(ctx context.Context, ownerID, id uuid.UUID) error
	ImportCompaniesCSV(ctx context.Context, ownerID uuid.UUID, csvData []byte) (*controller.ImportResult, error)
	UploadCompanyDetailCSV(ctx context.Context, ownerID, id uuid.UUID, csvData []byte) (*models.Company, []models.Field, error)
	TriggerEnrichment(ctx context.Context, ownerID, id uuid.UUID) (*models.Company, error)
}

// CompanyHandler maps REST requests to a CompanyController.
type CompanyHandler struct {
	service CompanyController
	logger  *zap.Logger
}

// NewCompanyHandler constructs a new CompanyHandler with the given service and logger.
func NewCompanyHandler(service CompanyController, logger *zap.Logger) *CompanyHandler {
	return &CompanyHandler{
		service: service,
		logger:  logger.Named("http_handler"),
	}
}

// Routes registers the company endpoints on the router.
func (h *CompanyHandler) Routes(r chi.Router) {
	r.Get("/", h.listCompanies)
	r.Post("/", h.createCompany)
	r.Post("/import", h.importCompanies)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.getCompany)
		r.Put("/", h.updateCompany)
		r.Delete("/", h.deleteCompany)
		r.Post("/enrich", h.triggerEnrichment)
		r.Post("/upload-details", h.uploadDetails)
	})
}

func (h *CompanyHandler) listCompanies(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := auth.OwnerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing owner")
		return
	}

	q := db.ListQuery{Search: r.URL.Query().Get("search")}
	q.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	q.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))

	page, err := h.service.ListCompanies(r.Context(), ownerID, q)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *CompanyHandler) getCompany(w http.ResponseWriter, r *http.Request) {
	ownerID, id, ok := h.ownerAndID(w, r)
	if !ok {
		return
	}

	company, err := h.service.GetCompany(r.Context(), ownerID, id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"company": company})
}

func (h *CompanyHandler) createCompany(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := auth.OwnerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing owner")
		return
	}

	var req struct {
		Name        string  `json:"name"`
		Domain      *string `json:"domain"`
		Website     *string `json:"website"`
		Industry    *string `json:"industry"`
		Size        *string `json:"size"`
		Description *string `json:"description"`
		Location    *string `json:"location"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	company := &models.Company{
		Name:        req.Name,
		Domain:      req.Domain,
		Website:     req.Website,
		Industry:    req.Industry,
		Size:        req.Size,
		Description: req.Description,
		Location:    req.Location,
	}

	created, err := h.service.CreateCompany(r.Context(), ownerID, company)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"company": created})
}

func (h *CompanyHandler) updateCompany(w http.ResponseWriter, r *http.Request) {
	ownerID, id, ok := h.ownerAndID(w, r)
	if !ok {
		return
	}

	var update models.CompanyUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.service.UpdateCompanyManual(r.Context(), ownerID, id, &update)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Company details updated",
		"company": updated,
	})
}

func (h *CompanyHandler) deleteCompany(w http.ResponseWriter, r *http.Request) {
	ownerID, id, ok := h.ownerAndID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteCompany(r.Context(), ownerID, id); err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Company deleted successfully"})
}

func (h *CompanyHandler) importCompanies(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := auth.OwnerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing owner")
		return
	}

	csvData, err := readUploadedFile(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.ImportCompaniesCSV(r.Context(), ownerID, csvData)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":        "Company import completed",
		"totalProcessed": result.TotalProcessed,
		"imported":       result.Imported,
		"duplicates":     result.Duplicates,
		"errors":         result.Errors,
		"companies":      result.Companies,
	})
}

func (h *CompanyHandler) uploadDetails(w http.ResponseWriter, r *http.Request) {
	ownerID, id, ok := h.ownerAndID(w, r)
	if !ok {
		return
	}

	csvData, err := readUploadedFile(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	company, touched, err := h.service.UploadCompanyDetailCSV(r.Context(), ownerID, id, csvData)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":       "Company details uploaded successfully from CSV",
		"company":       company,
		"fieldsUpdated": touched,
		"dataSource":    models.DataSourceCSVUpload,
	})
}

func (h *CompanyHandler) triggerEnrichment(w http.ResponseWriter, r *http.Request) {
	ownerID, id, ok := h.ownerAndID(w, r)
	if !ok {
		return
	}

	_, err := h.service.TriggerEnrichment(r.Context(), ownerID, id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{
		"message": "Company enrichment started",
		"status":  string(models.EnrichmentEnriching),
	})
}

// ownerAndID pulls the authenticated owner and the {id} route parameter,
// writing the error response itself when either is missing.
func (h *CompanyHandler) ownerAndID(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	ownerID, ok := auth.OwnerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing owner")
		return uuid.Nil, uuid.Nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid company ID")
		return uuid.Nil, uuid.Nil, false
	}
	return ownerID, id, true
}

// readUploadedFile extracts the CSV payload from a multipart "file"
// field, falling back to the raw request body for text/csv posts.
func readUploadedFile(r *http.Request) ([]byte, error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err == nil {
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, fmt.Errorf("no file uploaded")
		}
		defer file.Close()
		return io.ReadAll(io.LimitReader(file, maxUploadBytes))
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
	if err != nil || len(data) == 0 {
		return nil, fmt.Errorf("no file uploaded")
	}
	return data, nil
}

// writeServiceError maps domain errors to HTTP status codes.
func (h *CompanyHandler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, e.ErrNotFound):
		writeError(w, http.StatusNotFound, "Company not found")
	case errors.Is(err, e.ErrConflict):
		writeError(w, http.StatusConflict, "Company is already being enriched")
	case errors.Is(err, e.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("Internal server error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
