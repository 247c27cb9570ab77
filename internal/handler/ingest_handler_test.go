package handler_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"oshikake/internal/domain"
	"oshikake/internal/handler"
	"oshikake/internal/service"
	"oshikake/mocks"
)

func TestIngestHandler_Events(t *testing.T) {
	mockSvc := new(mocks.MockIngestService)
	events := []service.ObjectEvent{
		{BucketName: "oshikake-docs", ObjectKey: "doc1.png"},
		{BucketName: "oshikake-docs", ObjectKey: "doc2.png"},
	}
	mockSvc.On("ProcessBatch", mock.Anything, events).Return(&service.BatchResult{
		Message:        "processed 2 files",
		ProcessedFiles: 2,
		Succeeded:      1,
		Failed:         1,
		Results: []service.FileResult{
			{ObjectKey: "doc1.png", Status: "succeeded", OrderID: "#A1"},
			{ObjectKey: "doc2.png", Status: "failed", Error: "object missing"},
		},
	})

	body, _ := json.Marshal(map[string]interface{}{"events": events})

	h := handler.NewIngestHandler(mockSvc)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/ingest/events", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Events(c)

	// Partial failure still settles as 200; the payload carries the split.
	assert.Equal(t, http.StatusOK, w.Code)

	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, float64(2), data["processedFiles"])
	assert.Equal(t, float64(1), data["succeeded"])
	assert.Equal(t, float64(1), data["failed"])
	mockSvc.AssertExpectations(t)
}

func TestIngestHandler_EventsRequiresBody(t *testing.T) {
	h := handler.NewIngestHandler(new(mocks.MockIngestService))
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/ingest/events", strings.NewReader(`{}`))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Events(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIngestHandler_Upload(t *testing.T) {
	mockSvc := new(mocks.MockIngestService)
	mockSvc.On("UploadAndProcess", mock.Anything, "order1.png", "image/png", []byte("image bytes")).
		Return(&domain.Order{OrderHeader: domain.OrderHeader{OrderID: "#A1"}}, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreatePart(map[string][]string{
		"Content-Disposition": {`form-data; name="file"; filename="order1.png"`},
		"Content-Type":        {"image/png"},
	})
	require.NoError(t, err)
	_, err = part.Write([]byte("image bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	h := handler.NewIngestHandler(mockSvc)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/files/upload", &buf)
	c.Request.Header.Set("Content-Type", mw.FormDataContentType())

	h.Upload(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestIngestHandler_UploadRequiresFile(t *testing.T) {
	h := handler.NewIngestHandler(new(mocks.MockIngestService))
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/files/upload", http.NoBody)
	c.Request.Header.Set("Content-Type", "multipart/form-data")

	h.Upload(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
