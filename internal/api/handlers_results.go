package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fieldlens/fieldlens/internal/export"
	"github.com/fieldlens/fieldlens/internal/pipeline"
)

// handleListResults lists summaries of all stored extraction results.
func (s *Server) handleListResults(w http.ResponseWriter, r *http.Request) {
	summaries := s.store.List()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"results": summaries})
}

func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "resultID")
	res, err := s.store.Get(id)
	if err != nil {
		jsonError(w, "result not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"id": id, "data": res})
}

func (s *Server) handleDeleteResult(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "resultID")
	if err := s.store.Delete(id); err != nil {
		jsonError(w, "result not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"deleted": id})
}

// handleDownload streams a stored result as a csv or xlsx attachment.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "resultID")
	format := chi.URLParam(r, "format")

	res, err := s.store.Get(id)
	if err != nil {
		if errors.Is(err, pipeline.ErrNotFound) {
			jsonError(w, "result not found", http.StatusNotFound)
			return
		}
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var body []byte
	var contentType string
	switch format {
	case "csv":
		body, err = export.CSV(res)
		contentType = "text/csv"
	case "xlsx":
		body, err = export.XLSX(res)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		jsonError(w, "unsupported format: "+format, http.StatusBadRequest)
		return
	}
	if err != nil {
		s.log.Error("export failed", "id", id, "format", format, "error", err)
		jsonError(w, "export failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="extraction-%s.%s"`, id, format))
	w.Write(body)
}
