package controllers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/HSouheill/barrim_network/models"
	"github.com/HSouheill/barrim_network/services"
)

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrAccountNotFound),
		errors.Is(err, services.ErrAccountNotInTree),
		errors.Is(err, services.ErrReferrerNotFound):
		return http.StatusNotFound
	case services.IsDuplicateMember(err):
		return http.StatusConflict
	case services.IsConfigurationError(err),
		errors.Is(err, services.ErrAccountNotEligible),
		errors.Is(err, services.ErrSelfReferral),
		errors.Is(err, services.ErrInvalidSale):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the error envelope. Internal errors are logged and
// their details withheld from the client.
func respondError(c echo.Context, err error, message string) error {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		c.Logger().Errorf("%s: %v", message, err)
		return c.JSON(status, models.Response{
			Status:  status,
			Message: message,
		})
	}
	return c.JSON(status, models.Response{
		Status:  status,
		Message: message,
		Data:    err.Error(),
	})
}

func badRequest(c echo.Context, message string, err error) error {
	resp := models.Response{
		Status:  http.StatusBadRequest,
		Message: message,
	}
	if err != nil {
		resp.Data = err.Error()
	}
	return c.JSON(http.StatusBadRequest, resp)
}
