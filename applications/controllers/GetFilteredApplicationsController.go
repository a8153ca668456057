package controllers

import (
	"visa-portal-backend/utils/pagination"

	"github.com/gofiber/fiber/v2"
)

// GetFilteredApplicationsController handles the officer case list with
// optional filters. Applicants get their own applications only.
func (ac *ApplicationController) GetFilteredApplicationsController(c *fiber.Ctx) error {
	params := pagination.ParsePaginationParams(c)
	if err := pagination.ValidatePaginationParams(params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": err.Error(),
		})
	}

	actor, ok := actorFromContext(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "User not authenticated",
		})
	}

	filters := make(map[string]string)
	if status := c.Query("status"); status != "" {
		filters["status"] = status
	}
	if number := c.Query("application_number"); number != "" {
		filters["application_number"] = number
	}
	if visaTypeID := c.Query("visa_type_id"); visaTypeID != "" {
		filters["visa_type_id"] = visaTypeID
	}
	if officerID := c.Query("assigned_officer_id"); officerID != "" {
		filters["assigned_officer_id"] = officerID
	}

	if actor.Role.IsStaff() {
		if applicantID := c.Query("applicant_id"); applicantID != "" {
			filters["applicant_id"] = applicantID
		}
	} else {
		// Applicants are pinned to their own cases regardless of query.
		filters["applicant_id"] = actor.ID.String()
	}

	offset := (params.Page - 1) * params.PageSize

	applications, total, err := ac.ApplicationRepo.GetFilteredApplications(params.PageSize, offset, filters)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch applications",
		})
	}

	response := pagination.NewPaginatedResponse(c, applications, total, params)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"data":    response,
	})
}
