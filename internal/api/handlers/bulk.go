package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/certportal/certportal/internal/backend"
	"github.com/certportal/certportal/internal/bulk"
)

const maxUploadSize = 10 << 20

// BulkDownloader fetches many documents as one archive
type BulkDownloader interface {
	BulkDownload(ctx context.Context, ids []string) (*backend.Document, error)
}

// BulkUploadResponse represents the outcome of a CSV upload
type BulkUploadResponse struct {
	Parsed  int          `json:"parsed"`
	Skipped int          `json:"skipped"`
	Report  *bulk.Report `json:"report"`
	Error   string       `json:"error,omitempty"`
}

// BulkDownloadRequest lists the documents to archive
type BulkDownloadRequest struct {
	IDs []string `json:"ids"`
}

// BulkHandler handles bulk issuance requests
type BulkHandler struct {
	creator    *bulk.Creator
	downloader BulkDownloader
	logger     *zap.Logger
}

// NewBulkHandler creates a new bulk handler
func NewBulkHandler(creator *bulk.Creator, downloader BulkDownloader, logger *zap.Logger) *BulkHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BulkHandler{creator: creator, downloader: downloader, logger: logger}
}

// UploadCSV handles POST /api/bulk/csv. The CSV arrives either as the "file"
// part of a multipart form or as the raw request body.
func (h *BulkHandler) UploadCSV(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	var src io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid multipart upload")
			return
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			respondError(w, http.StatusBadRequest, "A CSV file is required")
			return
		}
		defer file.Close()
		src = file
	}

	parsed, err := bulk.ParseCSV(src)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(parsed.Records) == 0 {
		respondError(w, http.StatusBadRequest, "No valid rows found in the CSV file")
		return
	}

	resp := BulkUploadResponse{Parsed: len(parsed.Records), Skipped: parsed.Skipped}
	rep, err := h.creator.Create(r.Context(), parsed.Records)
	resp.Report = rep
	if err != nil {
		resp.Error = messageFor(err)
		respondJSON(w, statusFor(err), resp)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// DownloadZip handles POST /api/bulk/download
func (h *BulkHandler) DownloadZip(w http.ResponseWriter, r *http.Request) {
	var req BulkDownloadRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.IDs) == 0 {
		respondError(w, http.StatusBadRequest, bulk.ErrNoDocuments.Error())
		return
	}

	doc, err := h.downloader.BulkDownload(r.Context(), req.IDs)
	if err != nil {
		h.logger.Warn("bulk download failed", zap.Int("ids", len(req.IDs)), zap.Error(err))
		respondErr(w, err)
		return
	}
	name := doc.Filename
	if name == "" {
		name = fmt.Sprintf("certificates_%s.zip", time.Now().Format("20060102_150405"))
	}
	writeDocument(w, doc, name, true)
}
