package handler

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tgo/sage/internal/service"
)

type DocumentHandler struct {
	svc         *service.DocumentService
	storagePath string
	maxUpload   int64
}

func NewDocumentHandler(svc *service.DocumentService, storagePath string, maxUpload int64) *DocumentHandler {
	return &DocumentHandler{svc: svc, storagePath: storagePath, maxUpload: maxUpload}
}

// Upload accepts a multipart file, stages it on disk and returns 202 with
// the document in `processing` state while ingestion continues in the
// background.
func (h *DocumentHandler) Upload(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	projectID, err := uuid.Parse(c.PostForm("projectId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid projectId"})
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if h.maxUpload > 0 && header.Size > h.maxUpload {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file is too large"})
		return
	}

	if err := os.MkdirAll(h.storagePath, 0o755); err != nil {
		respondError(c, err)
		return
	}
	stagedPath := filepath.Join(h.storagePath, uuid.New().String()+"_"+filepath.Base(header.Filename))
	if err := c.SaveUploadedFile(header, stagedPath); err != nil {
		respondError(c, err)
		return
	}

	mimeType := header.Header.Get("Content-Type")
	doc, err := h.svc.Create(c.Request.Context(), projectID, userID, header.Filename, stagedPath, mimeType)
	if err != nil {
		// The staged file never entered the pipeline.
		os.Remove(stagedPath)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"message":  "file uploaded, processing in the background",
		"document": doc,
	})
}

func (h *DocumentHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	documentID, err := uuid.Parse(c.Param("documentId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document id"})
		return
	}

	doc, err := h.svc.Get(c.Request.Context(), documentID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, doc)
}

func (h *DocumentHandler) Summary(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	documentID, err := uuid.Parse(c.Param("documentId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document id"})
		return
	}

	summary, err := h.svc.GetSummary(c.Request.Context(), documentID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	documentID, err := uuid.Parse(c.Param("documentId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document id"})
		return
	}

	doc, err := h.svc.Delete(c.Request.Context(), documentID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "document deleted",
		"document": doc,
	})
}
