package httpapi

import (
	"fmt"
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-alerts/internal/alerts"
	"github.com/i474232898/weather-alerts/internal/common"
	"github.com/i474232898/weather-alerts/internal/weather"
)

type preferenceHandlers struct {
	repo alerts.PreferenceRepository
}

func (h *preferenceHandlers) list(c *fiber.Ctx) error {
	prefs, err := h.repo.ListPreferences(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(prefs)
}

func (h *preferenceHandlers) get(c *fiber.Ctx) error {
	pref, err := h.repo.GetPreference(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(pref)
}

func (h *preferenceHandlers) create(c *fiber.Ctx) error {
	var in alerts.PreferenceInput
	if err := bind(c, &in); err != nil {
		return err
	}
	in = in.Clean()
	if in.City == "" || in.Country == "" {
		return fiber.NewError(fiber.StatusBadRequest, "City and country are required")
	}

	pref, err := h.repo.AddPreference(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(pref)
}

func (h *preferenceHandlers) update(c *fiber.Ctx) error {
	var patch alerts.PreferencePatch
	if err := bind(c, &patch); err != nil {
		return err
	}
	patch = patch.Clean()
	if (patch.City != nil && *patch.City == "") || (patch.Country != nil && *patch.Country == "") {
		return fiber.NewError(fiber.StatusBadRequest, "City and country cannot be blank")
	}

	pref, err := h.repo.UpdatePreference(c.UserContext(), c.Params("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(pref)
}

func (h *preferenceHandlers) remove(c *fiber.Ctx) error {
	if err := h.repo.RemovePreference(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type alertHandlers struct {
	manager *alerts.Manager
	scanner *alerts.Scanner
}

func (h *alertHandlers) listActive(c *fiber.Ctx) error {
	active, err := h.manager.ListActive(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(active)
}

func (h *alertHandlers) listForLocation(c *fiber.Ctx) error {
	city, err := url.PathUnescape(c.Params("city"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid city")
	}
	country, err := url.PathUnescape(c.Params("country"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid country")
	}

	active, err := h.manager.ListActiveForLocation(c.UserContext(), city, country)
	if err != nil {
		return err
	}
	return c.JSON(active)
}

func (h *alertHandlers) create(c *fiber.Ctx) error {
	var in alerts.AlertInput
	if err := bind(c, &in); err != nil {
		return err
	}

	saved, err := h.manager.Add(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(saved)
}

func (h *alertHandlers) deactivate(c *fiber.Ctx) error {
	if err := h.manager.Deactivate(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type checkRequest struct {
	Latitude  *float64 `json:"latitude" validate:"required,min=-90,max=90"`
	Longitude *float64 `json:"longitude" validate:"required,min=-180,max=180"`
	City      string   `json:"city" validate:"required"`
	Country   string   `json:"country" validate:"required"`
}

type checkResponse struct {
	Message         string              `json:"message"`
	AlertsGenerated int                 `json:"alertsGenerated"`
	Alerts          []alerts.AlertEvent `json:"alerts"`
}

func (h *alertHandlers) check(c *fiber.Ctx) error {
	var req checkRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	loc := weather.Location{
		City:    common.CleanLabel(req.City),
		Country: common.CleanLabel(req.Country),
		Coordinates: weather.Coordinates{
			Latitude:  *req.Latitude,
			Longitude: *req.Longitude,
		},
	}
	stored, err := h.scanner.CheckLocation(c.UserContext(), loc)
	if err != nil {
		return err
	}

	return c.JSON(checkResponse{
		Message:         fmt.Sprintf("Checked weather conditions for %s, %s", loc.City, loc.Country),
		AlertsGenerated: len(stored),
		Alerts:          stored,
	})
}

type checkAllResponse struct {
	Message string `json:"message"`
	alerts.ScanReport
}

func (h *alertHandlers) checkAll(c *fiber.Ctx) error {
	report, err := h.scanner.ScanAll(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(checkAllResponse{
		Message:    fmt.Sprintf("Checked %d alert preference locations", report.LocationsScanned),
		ScanReport: report,
	})
}
