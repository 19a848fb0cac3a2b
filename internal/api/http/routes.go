package httpapi

import (
	"context"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-alerts/internal/alerts"
	"github.com/i474232898/weather-alerts/internal/common"
	"github.com/i474232898/weather-alerts/internal/favorites"
	"github.com/i474232898/weather-alerts/internal/weather"
)

var validate = newValidator()

// newValidator reports field errors by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	v.RegisterCustomTypeFunc(optionalValue, alerts.Optional[float64]{}, alerts.Optional[string]{})
	return v
}

// optionalValue exposes the payload of a patch field to validation; absent
// and null fields validate as empty.
func optionalValue(field reflect.Value) any {
	switch o := field.Interface().(type) {
	case alerts.Optional[float64]:
		if o.Value != nil {
			return *o.Value
		}
	case alerts.Optional[string]:
		if o.Value != nil {
			return *o.Value
		}
	}
	return nil
}

// WeatherService is the lookup side used by the weather routes.
type WeatherService interface {
	SearchCity(ctx context.Context, city string, units weather.UnitSystem) (weather.WeatherSnapshot, error)
	ByCoordinates(ctx context.Context, coords weather.Coordinates, units weather.UnitSystem) (weather.WeatherSnapshot, error)
}

// Dependencies are the collaborators the routes need.
type Dependencies struct {
	Weather     WeatherService
	Preferences alerts.PreferenceRepository
	Alerts      *alerts.Manager
	Scanner     *alerts.Scanner
	Favorites   favorites.Repository
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Dependencies) {
	api := app.Group("/api")

	w := &weatherHandlers{service: deps.Weather}
	api.Post("/weather/search", w.search)
	api.Post("/weather/coordinates", w.coordinates)

	p := &preferenceHandlers{repo: deps.Preferences}
	api.Get("/alert-preferences", p.list)
	api.Post("/alert-preferences", p.create)
	api.Get("/alert-preferences/:id", p.get)
	api.Put("/alert-preferences/:id", p.update)
	api.Delete("/alert-preferences/:id", p.remove)

	a := &alertHandlers{manager: deps.Alerts, scanner: deps.Scanner}
	api.Get("/alerts", a.listActive)
	api.Get("/alerts/city/:city/:country", a.listForLocation)
	api.Post("/alerts", a.create)
	api.Post("/alerts/check", a.check)
	api.Post("/alerts/check-all", a.checkAll)
	api.Delete("/alerts/:id", a.deactivate)

	f := &favoriteHandlers{repo: deps.Favorites}
	api.Get("/favorites", f.list)
	api.Post("/favorites", f.create)
	api.Get("/favorites/:id", f.get)
	api.Delete("/favorites/:id", f.remove)
}

// bind parses a JSON body into dst and validates it.
func bind(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	return validate.Struct(dst)
}

type weatherHandlers struct {
	service WeatherService
}

type searchRequest struct {
	City  string `json:"city" validate:"required"`
	Units string `json:"units" validate:"omitempty,oneof=metric imperial"`
}

func (h *weatherHandlers) search(c *fiber.Ctx) error {
	var req searchRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	city := common.CleanLabel(req.City)
	if city == "" {
		return fiber.NewError(fiber.StatusBadRequest, "City is required")
	}

	snapshot, err := h.service.SearchCity(c.UserContext(), city, weather.ParseUnits(req.Units))
	if err != nil {
		return err
	}
	return c.JSON(snapshot)
}

type coordinatesRequest struct {
	Latitude  *float64 `json:"latitude" validate:"required,min=-90,max=90"`
	Longitude *float64 `json:"longitude" validate:"required,min=-180,max=180"`
	Units     string   `json:"units" validate:"omitempty,oneof=metric imperial"`
}

func (h *weatherHandlers) coordinates(c *fiber.Ctx) error {
	var req coordinatesRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	coords := weather.Coordinates{Latitude: *req.Latitude, Longitude: *req.Longitude}
	snapshot, err := h.service.ByCoordinates(c.UserContext(), coords, weather.ParseUnits(req.Units))
	if err != nil {
		return err
	}
	return c.JSON(snapshot)
}
