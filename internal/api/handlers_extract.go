package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/fieldlens/fieldlens/internal/llm"
	"github.com/fieldlens/fieldlens/internal/parser"
	"github.com/fieldlens/fieldlens/internal/pipeline"
)

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	data, mimeType, err := s.readUpload(file, header, filename)
	if err != nil {
		var tooLarge *uploadTooLargeError
		if errors.As(err, &tooLarge) {
			jsonError(w, err.Error(), http.StatusRequestEntityTooLarge)
			return
		}
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if strings.HasPrefix(mimeType, "image/") {
		if cfg, format, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
			s.log.Info("image upload", "file", filename, "format", format,
				"width", cfg.Width, "height", cfg.Height)
		}
	}

	id, result, err := s.orchestrator.Process(r.Context(), data, mimeType, filename)
	if err != nil {
		switch {
		case errors.Is(err, pipeline.ErrUnsupportedFile):
			jsonError(w, err.Error(), http.StatusBadRequest)
		case llm.IsTransport(err):
			jsonError(w, "extraction backend unavailable: "+err.Error(), http.StatusBadGateway)
		default:
			jsonError(w, err.Error(), http.StatusBadRequest)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"id":       id,
		"filename": filename,
		"data":     result,
	})
}

func (s *Server) handleBatchExtract(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*10+10*1024*1024)

	if err := r.ParseMultipartForm(64 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		jsonError(w, "at least one file is required", http.StatusBadRequest)
		return
	}

	items := make([]pipeline.BatchItem, 0, len(files))
	var rejected []pipeline.BatchResult
	for _, fh := range files {
		filename := sanitizeFilename(fh.Filename)

		f, err := fh.Open()
		if err != nil {
			rejected = append(rejected, pipeline.BatchResult{FileName: filename, Error: "failed to open file"})
			continue
		}
		data, mimeType, err := s.readUpload(f, fh, filename)
		f.Close()
		if err != nil {
			rejected = append(rejected, pipeline.BatchResult{FileName: filename, Error: err.Error()})
			continue
		}

		items = append(items, pipeline.BatchItem{FileName: filename, MimeType: mimeType, Data: data})
	}

	results := s.orchestrator.ProcessBatch(r.Context(), items)
	results = append(results, rejected...)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"results": results})
}

type uploadTooLargeError struct {
	limit int64
}

func (e *uploadTooLargeError) Error() string {
	return fmt.Sprintf("file exceeds max size (%d bytes)", e.limit)
}

// readUpload reads one multipart file under the size limit and settles its
// mime type: the declared Content-Type when present, otherwise sniffed from
// the first bytes.
func (s *Server) readUpload(file multipart.File, header *multipart.FileHeader, filename string) ([]byte, string, error) {
	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return nil, "", errors.New("failed to read file")
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, "", &uploadTooLargeError{limit: s.cfg.MaxUploadBytes}
	}
	if len(data) == 0 {
		return nil, "", errors.New("file is empty")
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(data)
	}

	if !strings.HasPrefix(mimeType, "image/") && !parser.IsSupportedExtension(filename) {
		return nil, "", fmt.Errorf("unsupported file type: %s", filepath.Ext(filename))
	}
	return data, mimeType, nil
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
