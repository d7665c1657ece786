package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/atknylmz/Urtim-server/internal/models"
	"github.com/atknylmz/Urtim-server/internal/repositories"
	"github.com/atknylmz/Urtim-server/internal/validator"
)

const dateLayout = "2006-01-02"

type guestApplicationService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewGuestApplicationService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) GuestApplicationService {
	return &guestApplicationService{
		repo:      repo,
		logger:    logger,
		validator: validator,
	}
}

func (s *guestApplicationService) Submit(ctx context.Context, req *GuestApplicationRequest) (*models.GuestApplication, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	app := &models.GuestApplication{
		FirstName:            strings.TrimSpace(req.FirstName),
		LastName:             strings.TrimSpace(req.LastName),
		BirthDate:            parseDate(req.BirthDate),
		BirthPlace:           req.BirthPlace,
		InternshipStartDate:  parseDate(req.InternshipStartDate),
		InternshipEndDate:    parseDate(req.InternshipEndDate),
		Address:              req.Address,
		Phone:                req.Phone,
		Email:                strings.TrimSpace(req.Email),
		Nationality:          req.Nationality,
		MilitaryStatus:       req.MilitaryStatus,
		EducationInfo:        req.EducationInfo,
		LanguageInfo:         req.LanguageInfo,
		ComputerInfo:         req.ComputerInfo,
		Message:              req.Message,
		InternshipDepartment: req.InternshipDepartment,
		SemesterGrade:        req.SemesterGrade,
		AcceptEmail:          req.AcceptEmail,
		AcceptKvkk:           req.AcceptKvkk,
	}
	if req.Gender != nil {
		g := models.Gender(*req.Gender)
		app.Gender = &g
	}

	if app.InternshipStartDate != nil && app.InternshipEndDate != nil &&
		time.Time(*app.InternshipEndDate).Before(time.Time(*app.InternshipStartDate)) {
		return nil, validator.ValidationErrors{{
			Field:   "internshipEndDate",
			Message: "must not be before internshipStartDate",
			Rule:    "business_logic",
		}}
	}

	if err := s.repo.GuestApplication().Create(ctx, app); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, ErrGuestApplicantDup
		}
		return nil, internal("failed to save application", err)
	}

	s.logger.Info("Guest application received", "application_id", app.ID)
	return app, nil
}

func (s *guestApplicationService) List(ctx context.Context) ([]models.GuestApplication, error) {
	apps, err := s.repo.GuestApplication().List(ctx)
	if err != nil {
		return nil, internal("failed to list applications", err)
	}
	if apps == nil {
		apps = []models.GuestApplication{}
	}
	return apps, nil
}

// parseDate expects input already validated against dateLayout.
func parseDate(s *string) *datatypes.Date {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, strings.TrimSpace(*s))
	if err != nil {
		return nil
	}
	d := datatypes.Date(t)
	return &d
}
