package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"oshikake/internal/service"
)

// IngestHandler handles document upload and ingestion endpoints.
type IngestHandler struct {
	ingestService service.IngestService
}

// NewIngestHandler creates a new IngestHandler.
func NewIngestHandler(ingestService service.IngestService) *IngestHandler {
	return &IngestHandler{ingestService: ingestService}
}

// eventsRequest is the body of POST /api/v1/ingest/events.
type eventsRequest struct {
	Events []service.ObjectEvent `json:"events" binding:"required,min=1,dive"`
}

// Upload handles POST /api/v1/files/upload
func (h *IngestHandler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "UNREADABLE_FILE", "could not read uploaded file")
		return
	}

	contentType := header.Header.Get("Content-Type")
	order, err := h.ingestService.UploadAndProcess(c.Request.Context(), header.Filename, contentType, data)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondCreated(c, order)
}

// Events handles POST /api/v1/ingest/events
func (h *IngestHandler) Events(c *gin.Context) {
	var req eventsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", "events array is required")
		return
	}

	result := h.ingestService.ProcessBatch(c.Request.Context(), req.Events)
	RespondOK(c, result)
}
