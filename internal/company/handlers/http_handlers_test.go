package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap/zaptest"

	"github.com/relaycrm/relay/internal/company/auth"
	"github.com/relaycrm/relay/internal/company/controller"
	"github.com/relaycrm/relay/internal/company/db"
	e "github.com/relaycrm/relay/internal/company/errors"
	"github.com/relaycrm/relay/internal/company/models"
	"github.com/relaycrm/relay/internal/pkg/utils"
)

// fakeController implements CompanyController with function fields.
type fakeController struct {
	listCompanies          func(context.Context, uuid.UUID, db.ListQuery) (*controller.CompanyPage, error)
	getCompany             func(context.Context, uuid.UUID, uuid.UUID) (*models.Company, error)
	createCompany          func(context.Context, uuid.UUID, *models.Company) (*models.Company, error)
	updateCompanyManual    func(context.Context, uuid.UUID, uuid.UUID, *models.CompanyUpdate) (*models.Company, error)
	deleteCompany          func(context.Context, uuid.UUID, uuid.UUID) error
	importCompaniesCSV     func(context.Context, uuid.UUID, []byte) (*controller.ImportResult, error)
	uploadCompanyDetailCSV func(context.Context, uuid.UUID, uuid.UUID, []byte) (*models.Company, []models.Field, error)
	triggerEnrichment      func(context.Context, uuid.UUID, uuid.UUID) (*models.Company, error)
}

func (f *fakeController) ListCompanies(ctx context.Context, ownerID uuid.UUID, q db.ListQuery) (*controller.CompanyPage, error) {
	return f.listCompanies(ctx, ownerID, q)
}

func (f *fakeController) GetCompany(ctx context.Context, ownerID, id uuid.UUID) (*models.Company, error) {
	return f.getCompany(ctx, ownerID, id)
}

func (f *fakeController) CreateCompany(ctx context.Context, ownerID uuid.UUID, c *models.Company) (*models.Company, error) {
	return f.createCompany(ctx, ownerID, c)
}

func (f *fakeController) UpdateCompanyManual(ctx context.Context, ownerID, id uuid.UUID, u *models.CompanyUpdate) (*models.Company, error) {
	return f.updateCompanyManual(ctx, ownerID, id, u)
}

func (f *fakeController) DeleteCompany(ctx context.Context, ownerID, id uuid.UUID) error {
	return f.deleteCompany(ctx, ownerID, id)
}

func (f *fakeController) ImportCompaniesCSV(ctx context.Context, ownerID uuid.UUID, data []byte) (*controller.ImportResult, error) {
	return f.importCompaniesCSV(ctx, ownerID, data)
}

func (f *fakeController) UploadCompanyDetailCSV(ctx context.Context, ownerID, id uuid.UUID, data []byte) (*models.Company, []models.Field, error) {
	return f.uploadCompanyDetailCSV(ctx, ownerID, id, data)
}

func (f *fakeController) TriggerEnrichment(ctx context.Context, ownerID, id uuid.UUID) (*models.Company, error) {
	return f.triggerEnrichment(ctx, ownerID, id)
}

// newTestRouter mounts the handler behind a middleware that injects the
// owner straight into the request context, bypassing JWT parsing which
// has its own tests.
func newTestRouter(t *testing.T, svc CompanyController, owner uuid.UUID) http.Handler {
	h := NewCompanyHandler(svc, zaptest.NewLogger(t))
	router := chi.NewRouter()
	router.Route("/v1/companies", func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req.WithContext(auth.WithOwner(req.Context(), owner)))
			})
		})
		h.Routes(r)
	})
	return router
}

func doRequest(router http.Handler, method, target string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestListCompanies(t *testing.T) {
	owner := uuid.New()
	svc := &fakeController{
		listCompanies: func(_ context.Context, gotOwner uuid.UUID, q db.ListQuery) (*controller.CompanyPage, error) {
			if gotOwner != owner {
				t.Error("owner not propagated")
			}
			if q.Search != "acme" || q.Page != 2 || q.Limit != 5 {
				t.Errorf("query params not parsed: %+v", q)
			}
			return &controller.CompanyPage{
				Companies: []*models.Company{{Name: "Acme Inc"}},
				Total:     11, Page: 2, Limit: 5, TotalPages: 3,
			}, nil
		},
	}
	router := newTestRouter(t, svc, owner)

	rec := doRequest(router, http.MethodGet, "/v1/companies?search=acme&page=2&limit=5", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var page controller.CompanyPage
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if page.TotalPages != 3 || len(page.Companies) != 1 {
		t.Errorf("unexpected page: %+v", page)
	}
}

func TestGetCompany(t *testing.T) {
	owner := uuid.New()
	id := uuid.New()

	t.Run("found", func(t *testing.T) {
		svc := &fakeController{
			getCompany: func(_ context.Context, _, gotID uuid.UUID) (*models.Company, error) {
				if gotID != id {
					t.Error("id not propagated")
				}
				return &models.Company{ID: id, Name: "Acme Inc"}, nil
			},
		}
		rec := doRequest(newTestRouter(t, svc, owner), http.MethodGet, "/v1/companies/"+id.String(), nil, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var body struct {
			Company models.Company `json:"company"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("invalid response body: %v", err)
		}
		if body.Company.Name != "Acme Inc" {
			t.Errorf("unexpected company: %+v", body.Company)
		}
	})

	t.Run("not found", func(t *testing.T) {
		svc := &fakeController{
			getCompany: func(_ context.Context, _, _ uuid.UUID) (*models.Company, error) {
				return nil, e.ErrNotFound
			},
		}
		rec := doRequest(newTestRouter(t, svc, owner), http.MethodGet, "/v1/companies/"+id.String(), nil, "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("malformed id", func(t *testing.T) {
		rec := doRequest(newTestRouter(t, &fakeController{}, owner), http.MethodGet, "/v1/companies/not-a-uuid", nil, "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestCreateCompany(t *testing.T) {
	owner := uuid.New()

	t.Run("created", func(t *testing.T) {
		svc := &fakeController{
			createCompany: func(_ context.Context, _ uuid.UUID, c *models.Company) (*models.Company, error) {
				c.ID = uuid.New()
				return c, nil
			},
		}
		body := bytes.NewBufferString(`{"name":"Acme Inc","website":"https://acme.com"}`)
		rec := doRequest(newTestRouter(t, svc, owner), http.MethodPost, "/v1/companies", body, "application/json")
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("validation error", func(t *testing.T) {
		svc := &fakeController{
			createCompany: func(_ context.Context, _ uuid.UUID, _ *models.Company) (*models.Company, error) {
				return nil, fmt.Errorf("%w: company name is required", e.ErrInvalidInput)
			},
		}
		body := bytes.NewBufferString(`{"name":""}`)
		rec := doRequest(newTestRouter(t, svc, owner), http.MethodPost, "/v1/companies", body, "application/json")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		body := bytes.NewBufferString(`{not json`)
		rec := doRequest(newTestRouter(t, &fakeController{}, owner), http.MethodPost, "/v1/companies", body, "application/json")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestUpdateCompany(t *testing.T) {
	owner := uuid.New()
	id := uuid.New()

	svc := &fakeController{
		updateCompanyManual: func(_ context.Context, _, _ uuid.UUID, u *models.CompanyUpdate) (*models.Company, error) {
			if u.Industry == nil || *u.Industry != "Retail" {
				t.Errorf("update not decoded: %+v", u)
			}
			return &models.Company{ID: id, Name: "Acme Inc", Industry: u.Industry}, nil
		},
	}
	body := bytes.NewBufferString(`{"industry":"Retail"}`)
	rec := doRequest(newTestRouter(t, svc, owner), http.MethodPut, "/v1/companies/"+id.String(), body, "application/json")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Company details updated") {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestDeleteCompany(t *testing.T) {
	owner := uuid.New()
	id := uuid.New()

	svc := &fakeController{
		deleteCompany: func(_ context.Context, _, _ uuid.UUID) error { return nil },
	}
	rec := doRequest(newTestRouter(t, svc, owner), http.MethodDelete, "/v1/companies/"+id.String(), nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Company deleted successfully") {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestImportCompanies(t *testing.T) {
	owner := uuid.New()

	t.Run("multipart upload", func(t *testing.T) {
		var received []byte
		svc := &fakeController{
			importCompaniesCSV: func(_ context.Context, _ uuid.UUID, data []byte) (*controller.ImportResult, error) {
				received = data
				return &controller.ImportResult{TotalProcessed: 2, Imported: 2}, nil
			},
		}

		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		fw, err := mw.CreateFormFile("file", "companies.csv")
		if err != nil {
			t.Fatal(err)
		}
		csvData := "Company Name\nAcme Inc\nGlobex\n"
		if _, err := fw.Write([]byte(csvData)); err != nil {
			t.Fatal(err)
		}
		mw.Close()

		rec := doRequest(newTestRouter(t, svc, owner), http.MethodPost, "/v1/companies/import", &buf, mw.FormDataContentType())
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if string(received) != csvData {
			t.Errorf("file content not forwarded: %q", received)
		}

		var body struct {
			Message        string `json:"message"`
			TotalProcessed int    `json:"totalProcessed"`
			Imported       int    `json:"imported"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("invalid response body: %v", err)
		}
		if body.TotalProcessed != 2 || body.Imported != 2 {
			t.Errorf("unexpected result: %+v", body)
		}
	})

	t.Run("raw body upload", func(t *testing.T) {
		svc := &fakeController{
			importCompaniesCSV: func(_ context.Context, _ uuid.UUID, data []byte) (*controller.ImportResult, error) {
				if len(data) == 0 {
					t.Error("expected raw body to be read")
				}
				return &controller.ImportResult{TotalProcessed: 1, Imported: 1}, nil
			},
		}
		body := bytes.NewBufferString("Company Name\nAcme Inc\n")
		rec := doRequest(newTestRouter(t, svc, owner), http.MethodPost, "/v1/companies/import", body, "text/csv")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("empty upload", func(t *testing.T) {
		rec := doRequest(newTestRouter(t, &fakeController{}, owner), http.MethodPost, "/v1/companies/import", nil, "text/csv")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("no valid records", func(t *testing.T) {
		svc := &fakeController{
			importCompaniesCSV: func(_ context.Context, _ uuid.UUID, _ []byte) (*controller.ImportResult, error) {
				return nil, fmt.Errorf("%w: no valid records found in CSV", e.ErrInvalidInput)
			},
		}
		body := bytes.NewBufferString("Company Name\n")
		rec := doRequest(newTestRouter(t, svc, owner), http.MethodPost, "/v1/companies/import", body, "text/csv")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestUploadDetails(t *testing.T) {
	owner := uuid.New()
	id := uuid.New()

	svc := &fakeController{
		uploadCompanyDetailCSV: func(_ context.Context, _, _ uuid.UUID, _ []byte) (*models.Company, []models.Field, error) {
			return &models.Company{ID: id, Name: "Acme Inc", Industry: utils.Ptr("Retail")},
				[]models.Field{models.FieldIndustry}, nil
		},
	}
	body := bytes.NewBufferString("Industry\nRetail\n")
	rec := doRequest(newTestRouter(t, svc, owner), http.MethodPost, "/v1/companies/"+id.String()+"/upload-details", body, "text/csv")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		FieldsUpdated []string `json:"fieldsUpdated"`
		DataSource    string   `json:"dataSource"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if len(resp.FieldsUpdated) != 1 || resp.FieldsUpdated[0] != "industry" {
		t.Errorf("unexpected fieldsUpdated: %v", resp.FieldsUpdated)
	}
	if resp.DataSource != string(models.DataSourceCSVUpload) {
		t.Errorf("unexpected dataSource: %s", resp.DataSource)
	}
}

func TestTriggerEnrichment(t *testing.T) {
	owner := uuid.New()
	id := uuid.New()

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"accepted", nil, http.StatusAccepted},
		{"already enriching", e.ErrConflict, http.StatusConflict},
		{"no website", fmt.Errorf("%w: company has no website to enrich from", e.ErrInvalidInput), http.StatusBadRequest},
		{"not found", e.ErrNotFound, http.StatusNotFound},
		{"provider wiring broken", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeController{
				triggerEnrichment: func(_ context.Context, _, _ uuid.UUID) (*models.Company, error) {
					if tt.err != nil {
						return nil, tt.err
					}
					return &models.Company{ID: id, EnrichmentStatus: models.EnrichmentEnriching}, nil
				},
			}
			rec := doRequest(newTestRouter(t, svc, owner), http.MethodPost, "/v1/companies/"+id.String()+"/enrich", nil, "")
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if tt.wantStatus == http.StatusAccepted && !strings.Contains(rec.Body.String(), `"status":"enriching"`) {
				t.Errorf("unexpected body: %s", rec.Body.String())
			}
		})
	}
}
