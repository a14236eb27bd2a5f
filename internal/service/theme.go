package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/otayori/internal/apperror"
	"github.com/sakif/otayori/internal/metrics"
	"github.com/sakif/otayori/internal/model"
	"github.com/sakif/otayori/internal/repository"
)

// CreateThemeInput is the staff request body for a new theme.
// Dates are optional YYYY-MM-DD strings; blank means "no bound".
type CreateThemeInput struct {
	Title       string  `json:"title" validate:"required"`
	Description *string `json:"description"`
	StartDate   string  `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate     string  `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
}

// ThemeService handles theme creation, listing and soft deletion.
type ThemeService struct {
	repo   repository.ThemeRepository
	logger *slog.Logger
	loc    *time.Location   // decides which calendar day "today" is
	now    func() time.Time // replaced in tests
}

// NewThemeService creates a ThemeService. loc is the timezone used for the
// student-facing date window; nil means UTC.
func NewThemeService(repo repository.ThemeRepository, logger *slog.Logger, loc *time.Location) *ThemeService {
	if loc == nil {
		loc = time.UTC
	}
	return &ThemeService{
		repo:   repo,
		logger: logger,
		loc:    loc,
		now:    time.Now,
	}
}

// Create validates input and stores a new active theme.
func (s *ThemeService) Create(ctx context.Context, input CreateThemeInput) (*model.Theme, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.StartDate = strings.TrimSpace(input.StartDate)
	input.EndDate = strings.TrimSpace(input.EndDate)

	if err := checkStruct(input); err != nil {
		return nil, err
	}

	theme := &model.Theme{Title: input.Title}
	if input.Description != nil {
		theme.Description = optional(*input.Description)
	}

	var err error
	if theme.StartDate, err = parseOptionalDate("start_date", input.StartDate); err != nil {
		return nil, err
	}
	if theme.EndDate, err = parseOptionalDate("end_date", input.EndDate); err != nil {
		return nil, err
	}

	if err := s.repo.CreateTheme(ctx, theme); err != nil {
		s.logger.Error("failed to create theme",
			slog.String("title", theme.Title),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating theme: %w", err)
	}

	metrics.ThemesCreated.Inc()
	s.logger.Info("theme created",
		slog.String("id", theme.ID),
		slog.String("title", theme.Title),
	)

	return theme, nil
}

// ListForStaff returns every active theme, open or not, newest first.
func (s *ThemeService) ListForStaff(ctx context.Context) ([]model.Theme, error) {
	themes, err := s.repo.ListActiveThemes(ctx, repository.ThemeFilter{})
	if err != nil {
		s.logger.Error("failed to list themes", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing themes: %w", err)
	}
	return themes, nil
}

// ListForStudents returns the active themes whose date window contains
// today in the service's timezone, newest first.
func (s *ThemeService) ListForStudents(ctx context.Context) ([]model.Theme, error) {
	today := s.Today()

	themes, err := s.repo.ListActiveThemes(ctx, repository.ThemeFilter{OpenOn: &today})
	if err != nil {
		s.logger.Error("failed to list open themes",
			slog.String("today", today.String()),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing open themes: %w", err)
	}
	return themes, nil
}

// Today is the current calendar day in the service's timezone.
func (s *ThemeService) Today() model.Date {
	return model.DateOf(s.now().In(s.loc))
}

// Deactivate soft-deletes a theme. Messages that reference it keep the
// reference and still show its title to staff.
func (s *ThemeService) Deactivate(ctx context.Context, id string) error {
	if err := requireID("theme", id); err != nil {
		return err
	}

	err := s.repo.DeactivateTheme(ctx, id)
	if errors.Is(err, apperror.ErrNotFound) {
		return err
	}
	if err != nil {
		s.logger.Error("failed to deactivate theme",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("deactivating theme: %w", err)
	}

	s.logger.Info("theme deactivated", slog.String("id", id))
	return nil
}

func parseOptionalDate(field, s string) (*model.Date, error) {
	if s == "" {
		return nil, nil
	}
	d, err := model.ParseDate(s)
	if err != nil {
		return nil, apperror.ValidationFailed(field, field+" must be a date in YYYY-MM-DD form")
	}
	return &d, nil
}
