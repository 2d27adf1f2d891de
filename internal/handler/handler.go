package handler

import (
	"net/http"
	"strconv"

	"github.com/pkg/errors"

	"github.com/carhive/rental-service/internal/errs"
	"github.com/carhive/rental-service/internal/model"

	"github.com/carhive/rental-service/pkg/validate"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

type Handler struct {
	rentalSvc RentalService
	log       *zap.Logger
}

func New(rentalSvc RentalService, log *zap.Logger) *Handler {
	return &Handler{
		rentalSvc: rentalSvc,
		log:       log,
	}
}

func (h *Handler) NewRouter() *echo.Echo {
	e := echo.New()
	const (
		baseRPS = 10
		apiRPS  = 100
	)
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 4 << 10, // 4 KB
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{http.MethodGet, http.MethodOptions, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
		AllowCredentials: true,
	}))

	base := e.Group("", newRateLimiterMW(baseRPS))
	base.GET("/manage/health", h.Health)

	e.Validator = validate.NewCustomValidator()
	api := e.Group("/api/v1",
		middleware.RequestLoggerWithConfig(requestLoggerConfig()),
		middleware.RequestID(),
		newRateLimiterMW(apiRPS),
	)

	api.GET("/vehicles", h.ListVehicles)
	api.GET("/vehicles/available", h.ListAvailable)
	api.GET("/vehicles/:vin", h.GetVehicle)

	api.POST("/reservations", h.CreateReservation)
	api.GET("/reservations", h.ListReservations)
	api.GET("/reservations/:id", h.GetReservation)
	api.POST("/reservations/:id/confirm", h.ConfirmReservation)
	api.POST("/reservations/:id/cancel", h.CancelReservation)

	api.POST("/payments", h.RecordPayment)
	api.POST("/sweep", h.SweepExpired)

	return e
}

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (h *Handler) ListVehicles(c echo.Context) error {
	vehicles, err := h.rentalSvc.ListVehicles(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, vehicles)
}

func (h *Handler) ListAvailable(c echo.Context) error {
	start, err := model.ParseDate(c.QueryParam("startDate"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid startDate")
	}
	end, err := model.ParseDate(c.QueryParam("endDate"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid endDate")
	}
	vehicles, err := h.rentalSvc.ListAvailable(c.Request().Context(), model.DateRange{Start: start, End: end})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, vehicles)
}

func (h *Handler) GetVehicle(c echo.Context) error {
	vin := c.Param("vin")
	if vin == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "vin is empty")
	}
	vehicle, err := h.rentalSvc.GetVehicle(c.Request().Context(), vin)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, vehicle)
}

func (h *Handler) CreateReservation(c echo.Context) error {
	var req model.CreateReservationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rsv, err := h.rentalSvc.CreateReservation(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, rsv)
}

func (h *Handler) ListReservations(c echo.Context) error {
	licenseNo := c.QueryParam("licenseNo")
	if licenseNo == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "licenseNo is empty")
	}
	items, err := h.rentalSvc.ListReservations(c.Request().Context(), licenseNo)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) GetReservation(c echo.Context) error {
	id, err := reservationID(c)
	if err != nil {
		return err
	}
	rsv, err := h.rentalSvc.GetReservation(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, rsv)
}

// ConfirmReservation is the operator path: same Pending -> Confirmed
// transition as a payment, no amount attached.
func (h *Handler) ConfirmReservation(c echo.Context) error {
	id, err := reservationID(c)
	if err != nil {
		return err
	}
	rsv, err := h.rentalSvc.ConfirmReservation(c.Request().Context(), id, nil)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, rsv)
}

func (h *Handler) CancelReservation(c echo.Context) error {
	id, err := reservationID(c)
	if err != nil {
		return err
	}
	if err := h.rentalSvc.CancelReservation(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "reservation cancelled and vehicle released"})
}

func (h *Handler) RecordPayment(c echo.Context) error {
	var req model.PaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	rsv, err := h.rentalSvc.RecordPayment(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, rsv)
}

func (h *Handler) SweepExpired(c echo.Context) error {
	released, err := h.rentalSvc.SweepExpired(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"released": released})
}

func reservationID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid reservation id")
	}
	return id, nil
}

func httpError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, errs.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, errs.ErrConflict), errors.Is(err, errs.ErrAlreadyConfirmed):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, errs.ErrInvalidRange), errors.Is(err, errs.ErrAlreadyStarted):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
