package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	searchUC "github.com/khoahotran/blog-search/internal/application/usecase/search"
	"github.com/khoahotran/blog-search/pkg/apperror"
	"github.com/khoahotran/blog-search/pkg/logger"
)

// DocumentCounter reports how many documents the live index holds.
type DocumentCounter interface {
	Count(ctx context.Context) (int, error)
}

type SearchHandler struct {
	searchUseCase *searchUC.SearchUseCase
	counter       DocumentCounter
	logger        logger.Logger
}

func NewSearchHandler(uc *searchUC.SearchUseCase, counter DocumentCounter, log logger.Logger) *SearchHandler {
	return &SearchHandler{
		searchUseCase: uc,
		counter:       counter,
		logger:        log,
	}
}

func (h *SearchHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.Error(apperror.NewInvalidInput("'q' query param is required", nil))
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	output, err := h.searchUseCase.Execute(c.Request.Context(), searchUC.SearchInput{
		Query: query,
		Limit: limit,
	})
	if err != nil {
		c.Error(apperror.NewUnavailable("search index is unavailable", err))
		return
	}

	dtos := make([]QueryResultDTO, len(output.Results))
	for i, res := range output.Results {
		dtos[i] = ToQueryResultDTO(res)
	}
	c.JSON(http.StatusOK, dtos)
}

func (h *SearchHandler) Health(c *gin.Context) {
	count, err := h.counter.Count(c.Request.Context())
	if err != nil {
		c.Error(apperror.NewUnavailable("search index is unavailable", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "UP", "documents": count})
}
