package handler_test

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/savoria-pos/api/internal/database"
	"github.com/savoria-pos/api/internal/handler"
	"github.com/savoria-pos/api/internal/importer"
)

// --- Mock store ---

type mockImportStore struct {
	categories []database.Category
	created    []database.MenuItem
}

func (m *mockImportStore) ListCategoriesByRestaurant(_ context.Context, restaurantID uuid.UUID) ([]database.Category, error) {
	return m.categories, nil
}

func (m *mockImportStore) CreateMenuItem(_ context.Context, arg database.CreateMenuItemParams) (database.MenuItem, error) {
	now := time.Now()
	it := database.MenuItem{
		ID:           uuid.New(),
		RestaurantID: arg.RestaurantID,
		CategoryID:   arg.CategoryID,
		Name:         arg.Name,
		Price:        arg.Price,
		Allergens:    arg.Allergens,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	m.created = append(m.created, it)
	return it, nil
}

func setupImportRouter(store *mockImportStore) *chi.Mux {
	h := handler.NewImportHandler(importer.New(store), nil)
	r := chi.NewRouter()
	r.Route("/restaurants/{rid}/menu-import", h.RegisterRoutes)
	return r
}

func doUpload(t *testing.T, router http.Handler, path, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest("POST", path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

// --- Tests ---

func TestImport_CSV(t *testing.T) {
	rid := uuid.New()
	store := &mockImportStore{categories: []database.Category{
		{ID: uuid.New(), RestaurantID: rid, Name: "Starters", IsActive: true},
	}}
	router := setupImportRouter(store)

	csv := "Name,Description,Category,Price,Image URL,Available,Prep Time (min),Allergens,Spice Level,Dietary,Tags," +
		"Variant 1 Name,Variant 1 Options,Variant 2 Name,Variant 2 Options,Variant 3 Name,Variant 3 Options\n" +
		"Paneer Tikka,Char-grilled paneer,Starters,280,,yes,15,\"dairy,nuts\",2,veg,,,,,,,\n" +
		",,Starters,,,,,,,,,,,,,,\n"

	rr := doUpload(t, router, "/restaurants/"+rid.String()+"/menu-import", "menu.csv", []byte(csv))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["created"].(float64) != 1 {
		t.Errorf("created: got %v, want 1", resp["created"])
	}
	if resp["failed"].(float64) != 1 {
		t.Errorf("failed: got %v, want 1", resp["failed"])
	}
	if len(store.created) != 1 {
		t.Fatalf("expected 1 item created, got %d", len(store.created))
	}
	if store.created[0].Name != "Paneer Tikka" {
		t.Errorf("name: got %v", store.created[0].Name)
	}
	// Comma lists inside a quoted CSV field survive the round trip.
	if len(store.created[0].Allergens) != 2 || store.created[0].Allergens[1] != "nuts" {
		t.Errorf("allergens: got %v, want [dairy nuts]", store.created[0].Allergens)
	}
}

func TestImport_RejectsUnknownExtension(t *testing.T) {
	rid := uuid.New()
	store := &mockImportStore{}
	router := setupImportRouter(store)

	rr := doUpload(t, router, "/restaurants/"+rid.String()+"/menu-import", "menu.pdf", []byte("not a sheet"))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestImport_EmptySheet(t *testing.T) {
	rid := uuid.New()
	store := &mockImportStore{}
	router := setupImportRouter(store)

	csv := "Name,Description,Category,Price,Image URL,Available,Prep Time (min),Allergens,Spice Level,Dietary,Tags," +
		"Variant 1 Name,Variant 1 Options,Variant 2 Name,Variant 2 Options,Variant 3 Name,Variant 3 Options\n"

	rr := doUpload(t, router, "/restaurants/"+rid.String()+"/menu-import", "menu.csv", []byte(csv))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestImportTemplate_CSV(t *testing.T) {
	store := &mockImportStore{}
	router := setupImportRouter(store)
	rid := uuid.New()

	rr := doRequest(t, router, "GET", "/restaurants/"+rid.String()+"/menu-import/template?format=csv", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("content type: got %q", ct)
	}
	if rr.Body.Len() == 0 {
		t.Error("expected template body")
	}
}

func TestImportTemplate_DefaultsToXLSX(t *testing.T) {
	store := &mockImportStore{}
	router := setupImportRouter(store)
	rid := uuid.New()

	rr := doRequest(t, router, "GET", "/restaurants/"+rid.String()+"/menu-import/template", nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Errorf("content type: got %q", ct)
	}
}

func TestImportTemplate_BadFormat(t *testing.T) {
	store := &mockImportStore{}
	router := setupImportRouter(store)
	rid := uuid.New()

	rr := doRequest(t, router, "GET", "/restaurants/"+rid.String()+"/menu-import/template?format=pdf", nil)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}
