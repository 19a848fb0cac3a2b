package httpapi

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/i474232898/weather-alerts/internal/alerts"
	"github.com/i474232898/weather-alerts/internal/favorites"
	"github.com/i474232898/weather-alerts/internal/weather"
)

// errorBody is the shape of every error response.
type errorBody struct {
	Message string       `json:"message"`
	Errors  []fieldError `json:"errors,omitempty"`
}

type fieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

// ErrorHandler renders handler errors as {message, errors?} with a status
// derived from the error kind.
func ErrorHandler(logger logrus.FieldLogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, body := classify(err)
		if status >= fiber.StatusInternalServerError {
			logger.WithError(err).WithFields(logrus.Fields{
				"method": c.Method(),
				"path":   c.Path(),
			}).Error("request failed")
		}
		return c.Status(status).JSON(body)
	}
}

func classify(err error) (int, errorBody) {
	var verrs validator.ValidationErrors
	var ferr *fiber.Error

	switch {
	case errors.As(err, &verrs):
		body := errorBody{Message: "Invalid request data"}
		for _, fe := range verrs {
			body.Errors = append(body.Errors, fieldError{
				Field:   fe.Field(),
				Tag:     fe.Tag(),
				Message: describeFieldError(fe),
			})
		}
		return fiber.StatusBadRequest, body

	case errors.As(err, &ferr):
		return ferr.Code, errorBody{Message: ferr.Message}

	case errors.Is(err, alerts.ErrPreferenceNotFound):
		return fiber.StatusNotFound, errorBody{Message: "Alert preference not found"}
	case errors.Is(err, favorites.ErrNotFound):
		return fiber.StatusNotFound, errorBody{Message: "Favorite city not found"}

	case errors.Is(err, weather.ErrLocationNotFound):
		return fiber.StatusBadRequest, errorBody{Message: "City not found"}
	case errors.Is(err, weather.ErrMalformedPayload):
		return fiber.StatusBadRequest, errorBody{Message: "Weather provider returned an incomplete forecast"}
	case errors.Is(err, weather.ErrUpstreamUnavailable):
		return fiber.StatusInternalServerError, errorBody{Message: "Failed to fetch weather data"}
	}

	return fiber.StatusInternalServerError, errorBody{Message: "Internal server error"}
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	}
	return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
}
