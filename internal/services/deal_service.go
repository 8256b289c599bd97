package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nexcrm/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type DealService struct {
	db      *gorm.DB
	logger  *logrus.Logger
	trigger automationTrigger
}

func NewDealService(db *gorm.DB, logger *logrus.Logger, engine *Engine, records *RecordRepository) *DealService {
	if logger == nil {
		logger = logrus.New()
	}
	return &DealService{
		db:      db,
		logger:  logger,
		trigger: newAutomationTrigger(engine, records, logger),
	}
}

type DealRequest struct {
	Title             string     `json:"title" binding:"required"`
	Value             float64    `json:"value"`
	Currency          string     `json:"currency"`
	Stage             string     `json:"stage"`
	Probability       *int       `json:"probability"`
	ExpectedCloseDate *time.Time `json:"expected_close_date"`
	ContactPerson     string     `json:"contact_person"`
	AssignedTo        string     `json:"assigned_to"`
	Notes             string     `json:"notes"`
}

func (s *DealService) Create(ctx context.Context, orgID, userID string, req *DealRequest) (*models.Deal, error) {
	if req == nil {
		return nil, fmt.Errorf("request required")
	}
	deal := &models.Deal{
		OrganizationID:    orgID,
		Title:             req.Title,
		Value:             req.Value,
		Currency:          req.Currency,
		Stage:             req.Stage,
		ExpectedCloseDate: req.ExpectedCloseDate,
		ContactPerson:     req.ContactPerson,
		AssignedTo:        req.AssignedTo,
		Notes:             req.Notes,
		CreatedBy:         userID,
	}
	if deal.Currency == "" {
		deal.Currency = "USD"
	}
	if deal.Stage == "" {
		deal.Stage = "Discovery"
	}
	if req.Probability != nil {
		deal.Probability = *req.Probability
	} else {
		deal.Probability = 10
	}
	if err := s.db.WithContext(ctx).Create(deal).Error; err != nil {
		return nil, err
	}

	snap := s.trigger.snapshot(ctx, orgID, models.ModuleDeal, deal.ID)
	s.trigger.fire(ctx, orgID, models.ModuleDeal, models.EventCreated, snap)

	return s.Get(ctx, orgID, deal.ID)
}

func (s *DealService) Get(ctx context.Context, orgID, id string) (*models.Deal, error) {
	var deal models.Deal
	err := s.db.WithContext(ctx).
		Where("organization_id = ? AND id = ?", orgID, id).
		Take(&deal).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &deal, nil
}

func (s *DealService) List(ctx context.Context, orgID string) ([]models.Deal, error) {
	var deals []models.Deal
	err := s.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("created_at DESC").
		Find(&deals).Error
	if err != nil {
		return nil, err
	}
	return deals, nil
}

func (s *DealService) Update(ctx context.Context, orgID, id string, req *DealRequest) (*models.Deal, error) {
	if req == nil {
		return nil, fmt.Errorf("request required")
	}
	deal, err := s.Get(ctx, orgID, id)
	if err != nil {
		return nil, err
	}

	deal.Title = req.Title
	deal.Value = req.Value
	if req.Currency != "" {
		deal.Currency = req.Currency
	}
	if req.Stage != "" {
		deal.Stage = req.Stage
	}
	if req.Probability != nil {
		deal.Probability = *req.Probability
	}
	deal.ExpectedCloseDate = req.ExpectedCloseDate
	deal.ContactPerson = req.ContactPerson
	deal.AssignedTo = req.AssignedTo
	deal.Notes = req.Notes
	if err := s.db.WithContext(ctx).Save(deal).Error; err != nil {
		return nil, err
	}

	snap := s.trigger.snapshot(ctx, orgID, models.ModuleDeal, deal.ID)
	s.trigger.fire(ctx, orgID, models.ModuleDeal, models.EventUpdated, snap)

	return s.Get(ctx, orgID, deal.ID)
}

func (s *DealService) Delete(ctx context.Context, orgID, id string) error {
	snap := s.trigger.snapshot(ctx, orgID, models.ModuleDeal, id)

	result := s.db.WithContext(ctx).
		Where("organization_id = ? AND id = ?", orgID, id).
		Delete(&models.Deal{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	s.trigger.fire(ctx, orgID, models.ModuleDeal, models.EventDeleted, snap)
	return nil
}
