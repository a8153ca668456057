package controllers

import (
	"time"

	"visa-portal-backend/config"
	"visa-portal-backend/db/models"
	search_repositories "visa-portal-backend/search/repositories"
	"visa-portal-backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type CreateApplicationRequest struct {
	VisaTypeID   string `json:"visa_type_id"`
	PersonalInfo struct {
		FirstName      string  `json:"first_name"`
		LastName       string  `json:"last_name"`
		DateOfBirth    string  `json:"date_of_birth"`
		Gender         *string `json:"gender"`
		Nationality    string  `json:"nationality"`
		PassportNumber string  `json:"passport_number"`
		Phone          *string `json:"phone"`
		Address        *string `json:"address"`
	} `json:"personal_info"`
	TravelInfo struct {
		PurposeOfVisit  string  `json:"purpose_of_visit"`
		IntendedArrival string  `json:"intended_arrival"`
		HostName        *string `json:"host_name"`
		HostAddress     *string `json:"host_address"`
	} `json:"travel_info"`
}

// CreateApplicationController handles a new visa application submission.
// The application number, fee snapshot and pending payment row are all
// created in one transaction.
func (ac *ApplicationController) CreateApplicationController(c *fiber.Ctx) error {
	var request CreateApplicationRequest
	if err := c.BodyParser(&request); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Invalid request payload",
			"error":   err.Error(),
		})
	}

	actor, ok := actorFromContext(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "User not authenticated",
		})
	}

	visaTypeID, err := uuid.Parse(request.VisaTypeID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Valid visa_type_id is required",
		})
	}

	if request.PersonalInfo.FirstName == "" || request.PersonalInfo.LastName == "" ||
		request.PersonalInfo.PassportNumber == "" || request.PersonalInfo.Nationality == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Personal details are incomplete",
		})
	}

	dateOfBirth, err := time.Parse("2006-01-02", request.PersonalInfo.DateOfBirth)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "date_of_birth must be in YYYY-MM-DD format",
		})
	}

	intendedArrival, err := time.Parse("2006-01-02", request.TravelInfo.IntendedArrival)
	if err != nil || request.TravelInfo.PurposeOfVisit == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Travel details are incomplete",
		})
	}

	var created *models.Application
	err = ac.DB.Transaction(func(tx *gorm.DB) error {
		var visaType models.VisaType
		if err := tx.First(&visaType, "id = ? AND is_active = ?", visaTypeID, true).Error; err != nil {
			return err
		}

		sequence, err := ac.ApplicationRepo.NextApplicationSequence(tx)
		if err != nil {
			return err
		}

		personalInfo := &models.PersonalInfo{
			ID:             uuid.New(),
			FirstName:      request.PersonalInfo.FirstName,
			LastName:       request.PersonalInfo.LastName,
			DateOfBirth:    dateOfBirth,
			Gender:         request.PersonalInfo.Gender,
			Nationality:    request.PersonalInfo.Nationality,
			PassportNumber: request.PersonalInfo.PassportNumber,
			Phone:          request.PersonalInfo.Phone,
			Address:        request.PersonalInfo.Address,
		}
		if err := tx.Create(personalInfo).Error; err != nil {
			return err
		}

		travelInfo := &models.TravelInfo{
			ID:              uuid.New(),
			PurposeOfVisit:  request.TravelInfo.PurposeOfVisit,
			IntendedArrival: intendedArrival,
			HostName:        request.TravelInfo.HostName,
			HostAddress:     request.TravelInfo.HostAddress,
		}
		if err := tx.Create(travelInfo).Error; err != nil {
			return err
		}

		// Fee snapshot: the payment row pins the fee at submission time so
		// a later tariff change never alters an open case.
		payment := &models.Payment{
			ID:     uuid.New(),
			Amount: visaType.Fee,
			Status: models.PendingPayment,
		}
		if err := tx.Create(payment).Error; err != nil {
			return err
		}

		application := &models.Application{
			ApplicationNumber: utils.FormatApplicationNumber(sequence),
			Status:            models.PendingApplication,
			SubmissionDate:    time.Now(),
			ApplicantID:       actor.ID,
			VisaTypeID:        visaType.ID,
			PersonalInfoID:    &personalInfo.ID,
			TravelInfoID:      &travelInfo.ID,
			PaymentID:         &payment.ID,
			CreatedBy:         actor.Email,
		}

		created, err = ac.ApplicationRepo.CreateApplication(tx, application)
		return err
	})
	if err != nil {
		config.Logger.Error("Failed to create application",
			zap.Error(err),
			zap.String("applicantID", actor.ID.String()))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to create application",
		})
	}

	// Index off the request path; search lags a write by at most a moment.
	go func(applicationID string) {
		full, err := ac.ApplicationRepo.GetApplicationByID(applicationID)
		if err != nil {
			config.Logger.Error("Failed to load application for indexing",
				zap.Error(err),
				zap.String("applicationID", applicationID))
			return
		}
		if err := ac.SearchRepo.IndexSingleApplication(search_repositories.NewApplicationSearchDoc(full)); err != nil {
			config.Logger.Error("Failed to index new application",
				zap.Error(err),
				zap.String("applicationID", applicationID))
		}
	}(created.ID.String())

	config.Logger.Info("Application created",
		zap.String("applicationNumber", created.ApplicationNumber),
		zap.String("applicantID", actor.ID.String()))

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Application submitted",
		"data":    created,
	})
}
