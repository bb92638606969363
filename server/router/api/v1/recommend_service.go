package v1

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/staynest/ai/recommend"
)

type recommendRequest struct {
	ListingID   string `json:"listing_id"`
	Description string `json:"description"`
	TopK        int    `json:"top_k"`
}

type recommendForUserRequest struct {
	HistoryIDs []string `json:"history_ids"`
	TopK       int      `json:"top_k"`
}

type recommendResponse struct {
	Recommendations []recommend.Recommendation `json:"recommendations"`
}

// Recommend returns listings similar to a listing id, or to a description when no id is given.
func (s *APIV1Service) Recommend(c echo.Context) error {
	var req recommendRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := validateTopK(req.TopK); err != nil {
		return err
	}

	ctx := c.Request().Context()
	var (
		recs []recommend.Recommendation
		err  error
	)
	switch {
	case strings.TrimSpace(req.ListingID) != "":
		recs, err = s.Recommender.ByID(ctx, strings.TrimSpace(req.ListingID), req.TopK)
	case strings.TrimSpace(req.Description) != "":
		recs, err = s.Recommender.ByText(ctx, req.Description, req.TopK)
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "Provide listing_id or description")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error()).SetInternal(err)
	}

	return c.JSON(http.StatusOK, recommendResponse{Recommendations: recs})
}

// RecommendForUser returns listings similar to a user's viewing history.
func (s *APIV1Service) RecommendForUser(c echo.Context) error {
	var req recommendForUserRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if req.HistoryIDs == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "history_ids is required")
	}
	if err := validateTopK(req.TopK); err != nil {
		return err
	}

	recs, err := s.Recommender.ByHistory(c.Request().Context(), req.HistoryIDs, req.TopK)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error()).SetInternal(err)
	}

	return c.JSON(http.StatusOK, recommendResponse{Recommendations: recs})
}

const maxTopK = 100

func validateTopK(topK int) error {
	if topK < 0 || topK > maxTopK {
		return echo.NewHTTPError(http.StatusBadRequest, "top_k must be between 1 and 100")
	}
	return nil
}
