package httpapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/weather-alerts/internal/common"
	"github.com/i474232898/weather-alerts/internal/favorites"
)

type favoriteHandlers struct {
	repo favorites.Repository
}

func (h *favoriteHandlers) list(c *fiber.Ctx) error {
	favs, err := h.repo.ListFavorites(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(favs)
}

func (h *favoriteHandlers) get(c *fiber.Ctx) error {
	fav, err := h.repo.GetFavorite(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fav)
}

func (h *favoriteHandlers) create(c *fiber.Ctx) error {
	var in favorites.Input
	if err := bind(c, &in); err != nil {
		return err
	}
	if common.CleanLabel(in.Name) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Name is required")
	}

	fav, err := h.repo.AddFavorite(c.UserContext(), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fav)
}

func (h *favoriteHandlers) remove(c *fiber.Ctx) error {
	if err := h.repo.RemoveFavorite(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
