package controllers

import (
	"visa-portal-backend/search/repositories"

	"github.com/gofiber/fiber/v2"
)

type SearchController struct {
	repo repositories.SearchRepositoryInterface
}

func NewSearchController(repo repositories.SearchRepositoryInterface) *SearchController {
	return &SearchController{repo: repo}
}

func (c *SearchController) SearchApplicationsController(ctx *fiber.Ctx) error {
	query := ctx.Query("q")
	if query == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Search query is required",
		})
	}

	status := ctx.Query("status")

	results, err := c.repo.SearchApplications(query, status)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Search failed",
		})
	}

	var matches []interface{}
	for _, hit := range results.Hits {
		doc, err := c.repo.GetApplicationDocument(hit.ID)
		if err != nil {
			continue
		}
		matches = append(matches, doc)
	}

	return ctx.JSON(fiber.Map{
		"results": matches,
		"total":   results.Total,
	})
}
