package services

import (
	"context"
	"errors"
	"fmt"

	"nexcrm/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// LeadService owns lead CRUD and is a trigger call site: every committed
// mutation fires one automation pass before returning.
type LeadService struct {
	db      *gorm.DB
	logger  *logrus.Logger
	trigger automationTrigger
}

func NewLeadService(db *gorm.DB, logger *logrus.Logger, engine *Engine, records *RecordRepository) *LeadService {
	if logger == nil {
		logger = logrus.New()
	}
	return &LeadService{
		db:      db,
		logger:  logger,
		trigger: newAutomationTrigger(engine, records, logger),
	}
}

type LeadRequest struct {
	Name       string `json:"name" binding:"required"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Company    string `json:"company"`
	Source     string `json:"source"`
	Status     string `json:"status"`
	AssignedTo string `json:"assigned_to"`
	Notes      string `json:"notes"`
	Tags       string `json:"tags"`
}

func (s *LeadService) Create(ctx context.Context, orgID, userID string, req *LeadRequest) (*models.Lead, error) {
	if req == nil {
		return nil, fmt.Errorf("request required")
	}
	lead := &models.Lead{
		OrganizationID: orgID,
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		Company:        req.Company,
		Source:         req.Source,
		Status:         req.Status,
		AssignedTo:     req.AssignedTo,
		Notes:          req.Notes,
		Tags:           req.Tags,
		CreatedBy:      userID,
	}
	if lead.Source == "" {
		lead.Source = "other"
	}
	if lead.Status == "" {
		lead.Status = "new"
	}
	if err := s.db.WithContext(ctx).Create(lead).Error; err != nil {
		return nil, err
	}

	snap := s.trigger.snapshot(ctx, orgID, models.ModuleLead, lead.ID)
	s.trigger.fire(ctx, orgID, models.ModuleLead, models.EventCreated, snap)

	return s.Get(ctx, orgID, lead.ID)
}

func (s *LeadService) Get(ctx context.Context, orgID, id string) (*models.Lead, error) {
	var lead models.Lead
	err := s.db.WithContext(ctx).
		Where("organization_id = ? AND id = ?", orgID, id).
		Take(&lead).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &lead, nil
}

func (s *LeadService) List(ctx context.Context, orgID string) ([]models.Lead, error) {
	var leads []models.Lead
	err := s.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("created_at DESC").
		Find(&leads).Error
	if err != nil {
		return nil, err
	}
	return leads, nil
}

func (s *LeadService) Update(ctx context.Context, orgID, id string, req *LeadRequest) (*models.Lead, error) {
	if req == nil {
		return nil, fmt.Errorf("request required")
	}
	lead, err := s.Get(ctx, orgID, id)
	if err != nil {
		return nil, err
	}

	lead.Name = req.Name
	lead.Email = req.Email
	lead.Phone = req.Phone
	lead.Company = req.Company
	if req.Source != "" {
		lead.Source = req.Source
	}
	if req.Status != "" {
		lead.Status = req.Status
	}
	lead.AssignedTo = req.AssignedTo
	lead.Notes = req.Notes
	lead.Tags = req.Tags
	if err := s.db.WithContext(ctx).Save(lead).Error; err != nil {
		return nil, err
	}

	snap := s.trigger.snapshot(ctx, orgID, models.ModuleLead, lead.ID)
	s.trigger.fire(ctx, orgID, models.ModuleLead, models.EventUpdated, snap)

	return s.Get(ctx, orgID, lead.ID)
}

func (s *LeadService) Delete(ctx context.Context, orgID, id string) error {
	// Snapshot before the delete so Deleted-event rules still see the fields.
	snap := s.trigger.snapshot(ctx, orgID, models.ModuleLead, id)

	result := s.db.WithContext(ctx).
		Where("organization_id = ? AND id = ?", orgID, id).
		Delete(&models.Lead{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	s.trigger.fire(ctx, orgID, models.ModuleLead, models.EventDeleted, snap)
	return nil
}
