package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/marcelomendoncasoares/image2csv/internal/export"
	"github.com/marcelomendoncasoares/image2csv/internal/extract"
	"github.com/marcelomendoncasoares/image2csv/internal/statement"
)

// maxFormSize bounds a conversion upload (high-resolution phone screenshots)
const maxFormSize = int64(50 << 20)

// parserInfo is the JSON form of a registered parser
type parserInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, X-Conversion-Id, X-Conversion-Warnings")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// writeError writes a JSON error response with CORS headers set
func writeError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// convertStatus maps a conversion failure to a response status
func convertStatus(err error) int {
	var extractionErr *extract.ExtractionError
	switch {
	case errors.Is(err, ErrNoFiles),
		errors.Is(err, ErrInvalidFormat),
		errors.Is(err, ErrInvalidOptions),
		errors.Is(err, statement.ErrUnknownParser):
		return http.StatusBadRequest
	case errors.Is(err, statement.ErrEmptyResults), errors.As(err, &extractionErr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// handleListParsers returns the registered parsers
func (s *Server) handleListParsers(w http.ResponseWriter, r *http.Request) {
	vendors := statement.Vendors()
	parsers := make([]parserInfo, len(vendors))
	for i, v := range vendors {
		parsers[i] = parserInfo{Name: v.Name, Description: v.Description}
	}
	writeJSON(w, parsers)
}

// readUploads reads every file of the "files" form field, in order
func readUploads(r *http.Request) ([]Upload, error) {
	headers := r.MultipartForm.File["files"]
	uploads := make([]Upload, 0, len(headers))
	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", header.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", header.Filename, err)
		}
		uploads = append(uploads, Upload{Filename: header.Filename, Data: data})
	}
	return uploads, nil
}

// handleConvert converts the uploaded screenshots and returns the table as an attachment
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, "Upload is too large. Maximum size is 50MB.", http.StatusRequestEntityTooLarge)
			return
		}
		writeError(w, "Error parsing form", http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	uploads, err := readUploads(r)
	if err != nil {
		slog.Error("Error reading uploads", "error", err)
		writeError(w, "Error reading files. Please try again.", http.StatusInternalServerError)
		return
	}

	req := ConvertRequest{
		Parser:  r.FormValue("parser"),
		Files:   uploads,
		Format:  r.FormValue("format"),
		Options: export.DefaultOptions(),
	}
	if v := r.FormValue("drop_duplicates"); v != "" {
		if req.DropDuplicates, err = strconv.ParseBool(v); err != nil {
			writeError(w, fmt.Sprintf("invalid drop_duplicates value %q", v), http.StatusBadRequest)
			return
		}
	}
	if v := r.FormValue("separator"); v != "" {
		req.Options.Separator = v
	}
	if v := r.FormValue("encoding"); v != "" {
		req.Options.Encoding = v
	}

	result, err := s.service.Convert(r.Context(), req)
	if err != nil {
		writeError(w, err.Error(), convertStatus(err))
		return
	}

	conversion := result.Conversion
	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", conversion.Filename))
	w.Header().Set("X-Conversion-Id", conversion.ID)
	if len(conversion.Warnings) > 0 {
		w.Header().Set("X-Conversion-Warnings", strings.Join(conversion.Warnings, " | "))
	}
	w.WriteHeader(http.StatusOK)
	w.Write(result.Data)
}

// handleListConversions returns the conversion history
func (s *Server) handleListConversions(w http.ResponseWriter, r *http.Request) {
	conversions, err := s.service.ListConversions()
	if err != nil {
		slog.Error("Error listing conversions", "error", err)
		writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, conversions)
}

// handleGetConversion returns a single conversion
func (s *Server) handleGetConversion(w http.ResponseWriter, r *http.Request) {
	conversion, err := s.service.GetConversion(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, ErrConversionNotFound) {
			writeError(w, "Conversion not found", http.StatusNotFound)
			return
		}
		slog.Error("Error getting conversion", "error", err)
		writeError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, conversion)
}
