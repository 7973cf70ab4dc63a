package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	backupUC "github.com/khoahotran/blog-search/internal/application/usecase/backup"
	searchUC "github.com/khoahotran/blog-search/internal/application/usecase/search"
	"github.com/khoahotran/blog-search/pkg/apperror"
)

// IndexHandler exposes the admin index maintenance operations. backup may be
// nil when no off-site storage is configured.
type IndexHandler struct {
	upsertUseCase  *searchUC.UpsertUseCase
	deleteUseCase  *searchUC.DeleteIndexUseCase
	rebuildUseCase *searchUC.RebuildIndexUseCase
	backupUseCase  *backupUC.BackupSnapshotUseCase
}

func NewIndexHandler(
	upsertUC *searchUC.UpsertUseCase,
	deleteUC *searchUC.DeleteIndexUseCase,
	rebuildUC *searchUC.RebuildIndexUseCase,
	backup *backupUC.BackupSnapshotUseCase,
) *IndexHandler {
	return &IndexHandler{
		upsertUseCase:  upsertUC,
		deleteUseCase:  deleteUC,
		rebuildUseCase: rebuildUC,
		backupUseCase:  backup,
	}
}

func postIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.Error(apperror.NewInvalidInput("post id must be a positive integer", err))
		return 0, false
	}
	return id, true
}

func (h *IndexHandler) UpsertDocument(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		return
	}

	var req UpsertDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperror.NewInvalidInput(err.Error(), err))
		return
	}

	output, err := h.upsertUseCase.Execute(c.Request.Context(), searchUC.UpsertInput{
		ID:          id,
		Slug:        req.Slug,
		Title:       req.Title,
		Summary:     req.Summary,
		Category:    req.Category,
		ContentJSON: req.ContentJSON,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, IndexMutationResponse{ID: output.ID})
}

func (h *IndexHandler) DeleteDocument(c *gin.Context) {
	id, ok := postIDParam(c)
	if !ok {
		return
	}

	output, err := h.deleteUseCase.Execute(c.Request.Context(), searchUC.DeleteIndexInput{ID: id})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, IndexMutationResponse{ID: output.ID})
}

func (h *IndexHandler) Rebuild(c *gin.Context) {
	output, err := h.rebuildUseCase.Execute(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, RebuildResponse{Indexed: output.Indexed, Duration: output.DurationMillis()})
}

func (h *IndexHandler) Backup(c *gin.Context) {
	if h.backupUseCase == nil {
		c.Error(apperror.NewUnavailable("snapshot backup is not configured", nil))
		return
	}

	output, err := h.backupUseCase.Execute(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, BackupResponse{
		URL:      output.URL,
		PublicID: output.PublicID,
		Bytes:    output.Bytes,
		Skipped:  output.Skipped,
	})
}
