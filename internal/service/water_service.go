package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/life-ease-api/internal/models"
	"github.com/noah-isme/life-ease-api/internal/repository"
	appErrors "github.com/noah-isme/life-ease-api/pkg/errors"
	"github.com/noah-isme/life-ease-api/pkg/export"
)

const summaryDateLayout = "2006-01-02"

type waterRepository interface {
	List(ctx context.Context, filter models.WaterEntryFilter) ([]models.WaterEntry, error)
	FindOwned(ctx context.Context, id, userID string) (*models.WaterEntry, error)
	Create(ctx context.Context, entry *models.WaterEntry) error
	Update(ctx context.Context, entry *models.WaterEntry) error
	Delete(ctx context.Context, id, userID string) error
}

var errWaterEntryNotFound = appErrors.Clone(appErrors.ErrNotFound, "Water entry not found")

// WaterService records water intake and reports on it.
type WaterService struct {
	repo      waterRepository
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewWaterService creates a WaterService.
func NewWaterService(repo waterRepository, validate *validator.Validate, logger *zap.Logger) *WaterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &WaterService{repo: repo, validator: validate, logger: logger, now: time.Now}
}

// List returns the caller's entries, newest first.
func (s *WaterService) List(ctx context.Context, userID string) ([]models.WaterEntry, error) {
	entries, err := s.repo.List(ctx, models.WaterEntryFilter{UserID: userID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Error fetching water entries")
	}
	return entries, nil
}

// Create logs an intake for userID.
func (s *WaterService) Create(ctx context.Context, userID string, req models.CreateWaterEntryRequest) (*models.WaterEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid water entry payload")
	}

	entry := &models.WaterEntry{
		UserID: userID,
		Amount: req.Amount,
		Unit:   req.Unit,
		Note:   strings.TrimSpace(req.Note),
	}
	if entry.Unit == "" {
		entry.Unit = models.WaterUnitML
	}
	if req.Timestamp != nil {
		entry.Timestamp = req.Timestamp.UTC()
	} else {
		entry.Timestamp = s.now().UTC()
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Error creating water entry")
	}
	return entry, nil
}

// Update applies a partial update to an owned entry.
func (s *WaterService) Update(ctx context.Context, userID, id string, req models.UpdateWaterEntryRequest) (*models.WaterEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid water entry payload")
	}

	entry, err := s.repo.FindOwned(ctx, id, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errWaterEntryNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Error updating water entry")
	}

	if req.Amount != nil {
		entry.Amount = *req.Amount
	}
	if req.Unit != nil {
		entry.Unit = *req.Unit
	}
	if req.Timestamp != nil {
		entry.Timestamp = req.Timestamp.UTC()
	}
	if req.Note != nil {
		entry.Note = strings.TrimSpace(*req.Note)
	}

	if err := s.repo.Update(ctx, entry); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errWaterEntryNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Error updating water entry")
	}
	return entry, nil
}

// Delete removes an owned entry.
func (s *WaterService) Delete(ctx context.Context, userID, id string) error {
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return errWaterEntryNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Error deleting water entry")
	}
	return nil
}

// Summary totals the caller's intake for one UTC day in millilitres. An empty
// date means today.
func (s *WaterService) Summary(ctx context.Context, userID, date string) (*models.WaterSummary, error) {
	day := s.now().UTC().Truncate(24 * time.Hour)
	if date != "" {
		parsed, err := time.Parse(summaryDateLayout, date)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "date must be YYYY-MM-DD")
		}
		day = parsed
	}
	end := day.Add(24 * time.Hour)

	entries, err := s.repo.List(ctx, models.WaterEntryFilter{UserID: userID, From: &day, To: &end})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Error fetching water entries")
	}

	summary := &models.WaterSummary{Date: day.Format(summaryDateLayout), EntryCount: len(entries)}
	for _, e := range entries {
		summary.TotalML += e.Millilitres()
	}
	return summary, nil
}

// Export renders all of the caller's entries as csv or pdf.
func (s *WaterService) Export(ctx context.Context, userID, format string) (*export.File, error) {
	entries, err := s.repo.List(ctx, models.WaterEntryFilter{UserID: userID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Error fetching water entries")
	}

	data := export.Dataset{
		Title:   "Water intake",
		Headers: []string{"Timestamp", "Amount", "Unit", "Millilitres", "Note"},
		Rows:    make([][]string, 0, len(entries)),
	}
	for _, e := range entries {
		data.Rows = append(data.Rows, []string{
			e.Timestamp.UTC().Format(time.RFC3339),
			strconv.FormatFloat(e.Amount, 'f', -1, 64),
			string(e.Unit),
			strconv.FormatFloat(e.Millilitres(), 'f', 1, 64),
			e.Note,
		})
	}

	file, err := export.Render(format, "water-entries-"+s.now().UTC().Format(summaryDateLayout), data)
	if err != nil {
		if errors.Is(err, export.ErrUnsupportedFormat) {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "format must be csv or pdf")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	s.logger.Info("water entries exported", zap.String("user_id", userID), zap.String("format", format), zap.Int("rows", len(entries)))
	return file, nil
}
