package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TonyCasey/public-prep-sub002/internal/models"
	"github.com/TonyCasey/public-prep-sub002/internal/services"
	"github.com/TonyCasey/public-prep-sub002/internal/utils"
)

type DocumentHandler struct {
	svc      services.DocumentService
	maxBytes int64
}

func NewDocumentHandler(svc services.DocumentService, maxBytes int64) *DocumentHandler {
	return &DocumentHandler{svc: svc, maxBytes: maxBytes}
}

func documentKind(c *gin.Context) (models.DocumentKind, bool) {
	switch c.Param("kind") {
	case "cv":
		return models.DocumentCV, true
	case "job-spec", "job_spec":
		return models.DocumentJobSpec, true
	default:
		writeError(c, utils.E(utils.CodeInvalidArgument, "DocumentHandler", "kind must be cv or job-spec", nil))
		return "", false
	}
}

// Upload accepts a multipart "file" part and replaces the previous document
// of the same kind.
func (h *DocumentHandler) Upload(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	kind, ok := documentKind(c)
	if !ok {
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "DocumentHandler.Upload", "multipart file part is required", err))
		return
	}
	if fh.Size > h.maxBytes {
		writeError(c, utils.E(utils.CodeInvalidArgument, "DocumentHandler.Upload", "file too large", nil))
		return
	}

	f, err := fh.Open()
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, "DocumentHandler.Upload", "failed to read upload", err))
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxBytes+1))
	if err != nil {
		writeError(c, utils.E(utils.CodeInternal, "DocumentHandler.Upload", "failed to read upload", err))
		return
	}
	if int64(len(data)) > h.maxBytes {
		writeError(c, utils.E(utils.CodeInvalidArgument, "DocumentHandler.Upload", "file too large", nil))
		return
	}

	doc, err := h.svc.Upload(c.Request.Context(), userID, services.UploadDocumentInput{
		Kind:     kind,
		FileName: fh.Filename,
		Data:     data,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

func (h *DocumentHandler) Get(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	kind, ok := documentKind(c)
	if !ok {
		return
	}

	doc, err := h.svc.Get(c.Request.Context(), userID, kind)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (h *DocumentHandler) DownloadURL(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	kind, ok := documentKind(c)
	if !ok {
		return
	}

	url, err := h.svc.DownloadURL(c.Request.Context(), userID, kind)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
