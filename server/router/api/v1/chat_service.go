package v1

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/staynest/ai/chat"
	"github.com/hrygo/staynest/ai/format"
)

type chatRequest struct {
	Message     string `json:"message"`
	PageContext string `json:"page_context"`
	ListingID   string `json:"listing_id"`
	// Format selects the reply rendering. "html" adds rendered HTML next to the markdown.
	Format string `json:"format"`
}

type chatResponse struct {
	Response string `json:"response"`
	HTML     string `json:"html,omitempty"`
}

func (s *APIV1Service) Chat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Message) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message is required")
	}
	if req.Format != "" && req.Format != "html" && req.Format != "markdown" {
		return echo.NewHTTPError(http.StatusBadRequest, "format must be markdown or html")
	}
	if s.ChatAssistant == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "chat assistant is not configured")
	}

	ctx := c.Request().Context()
	reply, err := s.ChatAssistant.Chat(ctx, chat.Request{
		Message:     req.Message,
		PageContext: req.PageContext,
		ListingID:   req.ListingID,
	})
	if errors.Is(err, chat.ErrEmptyMessage) {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error()).SetInternal(err)
	}

	resp := chatResponse{Response: reply}
	if req.Format == "html" && s.Formatter != nil {
		formatted, err := s.Formatter.Format(ctx, &format.FormatRequest{Content: reply})
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error()).SetInternal(err)
		}
		resp.HTML = formatted.HTML
	}
	return c.JSON(http.StatusOK, resp)
}
