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

// ActivityService owns calls, meetings, emails, notes and tasks. It is both a
// trigger call site and the landing table for tasks created by automation
// rules (those go through the record repository, not through here, so task
// creation by a rule does not fire another pass).
type ActivityService struct {
	db      *gorm.DB
	logger  *logrus.Logger
	trigger automationTrigger
}

func NewActivityService(db *gorm.DB, logger *logrus.Logger, engine *Engine, records *RecordRepository) *ActivityService {
	if logger == nil {
		logger = logrus.New()
	}
	return &ActivityService{
		db:      db,
		logger:  logger,
		trigger: newAutomationTrigger(engine, records, logger),
	}
}

type ActivityRequest struct {
	Type           string     `json:"type" binding:"required"`
	Subject        string     `json:"subject" binding:"required"`
	Description    string     `json:"description"`
	Date           *time.Time `json:"date"`
	Status         string     `json:"status"`
	RelatedToModel string     `json:"related_to_model"`
	RelatedToID    string     `json:"related_to_id"`
	AssignedTo     string     `json:"assigned_to"`
}

func (s *ActivityService) Create(ctx context.Context, orgID, userID string, req *ActivityRequest) (*models.Activity, error) {
	if req == nil {
		return nil, fmt.Errorf("request required")
	}
	activity := &models.Activity{
		OrganizationID: orgID,
		Type:           req.Type,
		Subject:        req.Subject,
		Description:    req.Description,
		Status:         req.Status,
		RelatedToModel: req.RelatedToModel,
		RelatedToID:    req.RelatedToID,
		AssignedTo:     req.AssignedTo,
		CreatedBy:      userID,
	}
	if req.Date != nil {
		activity.Date = *req.Date
	} else {
		activity.Date = time.Now()
	}
	if activity.Status == "" {
		activity.Status = "pending"
	}
	if err := s.db.WithContext(ctx).Create(activity).Error; err != nil {
		return nil, err
	}

	snap := s.trigger.snapshot(ctx, orgID, models.ModuleActivity, activity.ID)
	s.trigger.fire(ctx, orgID, models.ModuleActivity, models.EventCreated, snap)

	return s.Get(ctx, orgID, activity.ID)
}

func (s *ActivityService) Get(ctx context.Context, orgID, id string) (*models.Activity, error) {
	var activity models.Activity
	err := s.db.WithContext(ctx).
		Where("organization_id = ? AND id = ?", orgID, id).
		Take(&activity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &activity, nil
}

func (s *ActivityService) List(ctx context.Context, orgID string) ([]models.Activity, error) {
	var activities []models.Activity
	err := s.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("date DESC").
		Find(&activities).Error
	if err != nil {
		return nil, err
	}
	return activities, nil
}

func (s *ActivityService) Update(ctx context.Context, orgID, id string, req *ActivityRequest) (*models.Activity, error) {
	if req == nil {
		return nil, fmt.Errorf("request required")
	}
	activity, err := s.Get(ctx, orgID, id)
	if err != nil {
		return nil, err
	}

	activity.Type = req.Type
	activity.Subject = req.Subject
	activity.Description = req.Description
	if req.Date != nil {
		activity.Date = *req.Date
	}
	if req.Status != "" {
		activity.Status = req.Status
	}
	activity.RelatedToModel = req.RelatedToModel
	activity.RelatedToID = req.RelatedToID
	activity.AssignedTo = req.AssignedTo
	if err := s.db.WithContext(ctx).Save(activity).Error; err != nil {
		return nil, err
	}

	snap := s.trigger.snapshot(ctx, orgID, models.ModuleActivity, activity.ID)
	s.trigger.fire(ctx, orgID, models.ModuleActivity, models.EventUpdated, snap)

	return s.Get(ctx, orgID, activity.ID)
}

func (s *ActivityService) Delete(ctx context.Context, orgID, id string) error {
	snap := s.trigger.snapshot(ctx, orgID, models.ModuleActivity, id)

	result := s.db.WithContext(ctx).
		Where("organization_id = ? AND id = ?", orgID, id).
		Delete(&models.Activity{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	s.trigger.fire(ctx, orgID, models.ModuleActivity, models.EventDeleted, snap)
	return nil
}
