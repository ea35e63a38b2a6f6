package spot

import (
	"errors"
	"net/http"
	"net/url"

	"parkreserve/internal/api"
	"parkreserve/internal/logger"
	"parkreserve/internal/web"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	service Service
	toasts  web.ToastDrainer
}

// NewHandler builds the lot and spot handler. toasts may be nil.
func NewHandler(service Service, toasts web.ToastDrainer) *Handler {
	return &Handler{
		service: service,
		toasts:  toasts,
	}
}

// Home is the landing page: every parking lot with a link to its grid.
func (h *Handler) Home(c *gin.Context) {
	lots, err := h.service.ListLots(c.Request.Context())
	if err != nil {
		logger.Error("failed to list lots", "error", err)
		web.Error(c, http.StatusInternalServerError, "Something went wrong", "")
		return
	}

	c.HTML(http.StatusOK, "home.html", web.Page{
		Title:  "Parking lots",
		Toasts: web.DrainToasts(c, h.toasts),
		Data:   lots,
	})
}

func lotParam(c *gin.Context) (string, bool) {
	id := c.Param("lotID")
	_, err := uuid.Parse(id)
	return id, err == nil
}

// Page renders the spot grid of a lot. The current selection is carried in
// the "selected" query parameter.
func (h *Handler) Page(c *gin.Context) {
	lotID, ok := lotParam(c)
	if !ok {
		web.Error(c, http.StatusBadRequest, "Invalid lot", "The parking lot id is malformed.")
		return
	}

	h.renderGrid(c, http.StatusOK, lotID, c.Query("selected"))
}

func (h *Handler) renderGrid(c *gin.Context, status int, lotID, selected string) {
	lg, err := h.service.LotGrid(c.Request.Context(), lotID, selected)
	if err != nil {
		if errors.Is(err, ErrLotNotFound) {
			web.Error(c, http.StatusNotFound, "Lot not found", "")
			return
		}
		logger.Error("failed to load lot grid", "lot_id", lotID, "error", err)
		web.Error(c, http.StatusInternalServerError, "Something went wrong", "")
		return
	}

	c.HTML(status, "spots.html", web.Page{
		Title:  lg.Lot.Name,
		Toasts: web.DrainToasts(c, h.toasts),
		Data:   lg,
	})
}

// Select handles a click on a tile. An available spot redirects back to the
// grid with the selection; any other spot re-renders the grid unchanged.
func (h *Handler) Select(c *gin.Context) {
	lotID, ok := lotParam(c)
	if !ok {
		web.Error(c, http.StatusBadRequest, "Invalid lot", "The parking lot id is malformed.")
		return
	}

	selected, err := h.service.SelectSpot(c.Request.Context(), lotID, c.Param("spotID"))
	switch {
	case err == nil:
		c.Redirect(http.StatusSeeOther, "/lots/"+lotID+"/spots?selected="+url.QueryEscape(selected))
	case errors.Is(err, ErrSpotUnavailable):
		h.renderGrid(c, http.StatusConflict, lotID, "")
	case errors.Is(err, ErrSpotNotFound):
		web.Error(c, http.StatusNotFound, "Spot not found", "")
	default:
		logger.Error("spot selection failed", "lot_id", lotID, "error", err)
		web.Error(c, http.StatusInternalServerError, "Something went wrong", "")
	}
}

// @Summary      List parking lots
// @Tags         lots
// @Produce      json
// @Success      200 {array} spot.ParkingLot
// @Failure      500 {object} api.ErrorResponse
// @Router       /api/lots [get]
func (h *Handler) ListLots(c *gin.Context) {
	lots, err := h.service.ListLots(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch parking lots"})
		return
	}

	c.JSON(http.StatusOK, lots)
}

// @Summary      Spot grid of a lot
// @Description  Returns one tile per spot, in display order.
// @Tags         lots
// @Produce      json
// @Param        lotID     path   string  true   "Lot ID"
// @Param        selected  query  string  false  "Currently selected spot ID"
// @Success      200 {object} spot.LotGrid
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /api/lots/{lotID}/spots [get]
func (h *Handler) ListSpots(c *gin.Context) {
	lotID, ok := lotParam(c)
	if !ok {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid lot ID"})
		return
	}

	lg, err := h.service.LotGrid(c.Request.Context(), lotID, c.Query("selected"))
	if err != nil {
		if errors.Is(err, ErrLotNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Parking lot not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch spots"})
		return
	}

	c.JSON(http.StatusOK, lg)
}

// @Summary      Create a parking lot
// @Description  Admin-only
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body spot.CreateLotRequest true "Lot payload"
// @Success      201 {object} spot.ParkingLot
// @Failure      400 {object} api.ErrorResponse
// @Failure      401 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /admin/lots [post]
func (h *Handler) CreateLot(c *gin.Context) {
	var req CreateLotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	lot, err := h.service.CreateLot(c.Request.Context(), req)
	if err != nil {
		logger.Error("failed to create lot", "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to create parking lot"})
		return
	}

	c.JSON(http.StatusCreated, lot)
}

// @Summary      Add a spot to a lot
// @Description  Admin-only
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        lotID   path  string                  true  "Lot ID"
// @Param        request body  spot.CreateSpotRequest  true  "Spot payload"
// @Success      201 {object} spot.ParkingSpot
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      500 {object} api.ErrorResponse
// @Router       /admin/lots/{lotID}/spots [post]
func (h *Handler) CreateSpot(c *gin.Context) {
	lotID, ok := lotParam(c)
	if !ok {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid lot ID"})
		return
	}

	var req CreateSpotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	s, err := h.service.CreateSpot(c.Request.Context(), lotID, req)
	if err != nil {
		if errors.Is(err, ErrLotNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Parking lot not found"})
			return
		}
		logger.Error("failed to create spot", "lot_id", lotID, "error", err)
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to create spot"})
		return
	}

	c.JSON(http.StatusCreated, s)
}
