package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type embeddingRequest struct {
	Text *string `json:"text"`
}

type embeddingResponse struct {
	Embedding []float32 `json:"embedding"`
}

// GetEmbedding embeds arbitrary text with the configured embedding model.
func (s *APIV1Service) GetEmbedding(c echo.Context) error {
	var req embeddingRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if req.Text == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "text is required")
	}

	vec, err := s.Embedder.Embed(c.Request().Context(), *req.Text)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error()).SetInternal(err)
	}
	return c.JSON(http.StatusOK, embeddingResponse{Embedding: vec})
}
