package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type healthResponse struct {
	Status   string   `json:"status"`
	Services []string `json:"services"`
	Version  string   `json:"version,omitempty"`
}

func (s *APIV1Service) Health(c echo.Context) error {
	services := []string{}
	if s.Recommender != nil {
		services = append(services, "recommender")
	}
	if s.ChatAssistant != nil {
		services = append(services, "chatbot")
	}

	resp := healthResponse{Status: "active", Services: services}
	if s.Profile != nil {
		resp.Version = s.Profile.Version
	}
	return c.JSON(http.StatusOK, resp)
}
