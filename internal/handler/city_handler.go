package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/obaidmalik/cityflow-backend-go/internal/citygraph"
	"github.com/obaidmalik/cityflow-backend-go/pkg/response"
)

// CityHandler serves the available city datasets
type CityHandler struct {
	store *citygraph.Store
}

// NewCityHandler creates a new city handler
func NewCityHandler(store *citygraph.Store) *CityHandler {
	return &CityHandler{store: store}
}

// List returns the cities with precomputed datasets
// GET /v1/cities
func (h *CityHandler) List(c *gin.Context) {
	cities, err := h.store.ListCities()
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}
	response.Success(c, cities)
}
