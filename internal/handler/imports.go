package handler

import (
	"errors"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/savoria-pos/api/internal/cache"
	"github.com/savoria-pos/api/internal/importer"
	"github.com/savoria-pos/api/internal/ws"
)

const maxImportSize = 10 << 20 // 10 MB

// ImportHandler handles bulk menu import and template downloads.
type ImportHandler struct {
	importer *importer.Importer
	hub      *ws.Hub
}

func NewImportHandler(im *importer.Importer, hub *ws.Hub) *ImportHandler {
	return &ImportHandler{importer: im, hub: hub}
}

func (h *ImportHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Import)
	r.Get("/template", h.Template)
}

// Import accepts a multipart upload under the "file" field. CSV and XLSX are
// dispatched on file extension.
func (h *ImportHandler) Import(w http.ResponseWriter, r *http.Request) {
	rid, err := restaurantID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid restaurant ID")
		return
	}

	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	var rows []importer.Row
	switch strings.ToLower(filepath.Ext(header.Filename)) {
	case ".csv":
		rows, err = importer.ReadCSV(file)
	case ".xlsx", ".xls":
		rows, err = importer.ReadXLSX(file)
	default:
		writeError(w, http.StatusBadRequest, "unsupported file type, use .csv or .xlsx")
		return
	}
	if err != nil {
		if errors.Is(err, importer.ErrNoRows) {
			writeError(w, http.StatusBadRequest, "sheet has no data rows")
			return
		}
		writeError(w, http.StatusBadRequest, "could not read file")
		return
	}

	report, err := h.importer.Run(r.Context(), rid, rows)
	if err != nil {
		log.Printf("ERROR: run menu import: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if report.Created > 0 {
		cache.InvalidateMenu(r.Context(), rid)
		if h.hub != nil {
			h.hub.BroadcastToRestaurant(rid, ws.NewEvent(ws.EventMenuChanged, map[string]string{
				"restaurant_id": rid.String(),
			}))
		}
	}
	writeJSON(w, http.StatusOK, report)
}

// Template serves an empty import sheet with sample rows. Format defaults to
// xlsx; ?format=csv switches.
func (h *ImportHandler) Template(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	switch format {
	case "csv":
		data, err := importer.TemplateCSV()
		if err != nil {
			log.Printf("ERROR: build csv template: %v", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="menu_import_template.csv"`)
		w.Write(data)
	case "", "xlsx":
		data, err := importer.TemplateXLSX()
		if err != nil {
			log.Printf("ERROR: build xlsx template: %v", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="menu_import_template.xlsx"`)
		w.Write(data)
	default:
		writeError(w, http.StatusBadRequest, "format must be csv or xlsx")
	}
}
