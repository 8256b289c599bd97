package services

import (
	"context"
	"errors"
	"fmt"

	"nexcrm/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// RuleService is the persistence and query surface for automation rules.
// Every operation is scoped to one organization.
type RuleService struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewRuleService(db *gorm.DB, logger *logrus.Logger) *RuleService {
	if logger == nil {
		logger = logrus.New()
	}
	return &RuleService{db: db, logger: logger}
}

// RuleRequest is the authoring payload for create and update.
type RuleRequest struct {
	Name          string               `json:"name" binding:"required"`
	Description   string               `json:"description"`
	TriggerModule models.Module        `json:"trigger_module" binding:"required"`
	TriggerEvent  models.Event         `json:"trigger_event" binding:"required"`
	Conditions    models.ConditionList `json:"conditions"`
	Actions       models.ActionList    `json:"actions"`
	IsActive      *bool                `json:"is_active"`
}

func (r *RuleRequest) validate() error {
	if !r.TriggerModule.Valid() {
		return fmt.Errorf("unknown trigger module %q", r.TriggerModule)
	}
	if !r.TriggerEvent.Valid() {
		return fmt.Errorf("unknown trigger event %q", r.TriggerEvent)
	}
	for i, c := range r.Conditions {
		if c.Field == "" {
			return fmt.Errorf("condition %d: field required", i)
		}
		if !c.Operator.Valid() {
			return fmt.Errorf("condition %d: unknown operator %q", i, c.Operator)
		}
	}
	return nil
}

// Create stores a new rule. Names are unique within the organization.
func (s *RuleService) Create(ctx context.Context, orgID, userID string, req *RuleRequest) (*models.AutomationRule, error) {
	if req == nil {
		return nil, fmt.Errorf("request required")
	}
	if err := req.validate(); err != nil {
		return nil, err
	}
	taken, err := s.nameTaken(ctx, orgID, req.Name, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrDuplicateRuleName
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	rule := &models.AutomationRule{
		OrganizationID: orgID,
		Name:           req.Name,
		Description:    req.Description,
		IsActive:       active,
		TriggerModule:  req.TriggerModule,
		TriggerEvent:   req.TriggerEvent,
		Conditions:     req.Conditions,
		Actions:        req.Actions,
		CreatedBy:      userID,
	}
	if err := s.db.WithContext(ctx).Create(rule).Error; err != nil {
		return nil, err
	}
	return rule, nil
}

// Get returns a rule by id within the organization.
func (s *RuleService) Get(ctx context.Context, orgID, id string) (*models.AutomationRule, error) {
	var rule models.AutomationRule
	err := s.db.WithContext(ctx).
		Where("organization_id = ? AND id = ?", orgID, id).
		Take(&rule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rule, nil
}

// List returns the organization's rules, newest first, for the authoring UI.
func (s *RuleService) List(ctx context.Context, orgID string) ([]models.AutomationRule, error) {
	var rules []models.AutomationRule
	err := s.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("created_at DESC, id DESC").
		Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

// ListActive returns the active rules for one trigger in creation order, so a
// single evaluation pass applies them deterministically.
func (s *RuleService) ListActive(ctx context.Context, orgID string, module models.Module, event models.Event) ([]models.AutomationRule, error) {
	var rules []models.AutomationRule
	err := s.db.WithContext(ctx).
		Where("organization_id = ? AND is_active = ? AND trigger_module = ? AND trigger_event = ?",
			orgID, true, module, event).
		Order("created_at ASC, id ASC").
		Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

// Update replaces a rule's definition in place. A rename re-checks name
// uniqueness within the organization.
func (s *RuleService) Update(ctx context.Context, orgID, id string, req *RuleRequest) (*models.AutomationRule, error) {
	if req == nil {
		return nil, fmt.Errorf("request required")
	}
	if err := req.validate(); err != nil {
		return nil, err
	}
	rule, err := s.Get(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if req.Name != rule.Name {
		taken, err := s.nameTaken(ctx, orgID, req.Name, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, ErrDuplicateRuleName
		}
	}

	rule.Name = req.Name
	rule.Description = req.Description
	rule.TriggerModule = req.TriggerModule
	rule.TriggerEvent = req.TriggerEvent
	rule.Conditions = req.Conditions
	rule.Actions = req.Actions
	if req.IsActive != nil {
		rule.IsActive = *req.IsActive
	}
	if err := s.db.WithContext(ctx).Save(rule).Error; err != nil {
		return nil, err
	}
	return rule, nil
}

// Delete removes a rule permanently.
func (s *RuleService) Delete(ctx context.Context, orgID, id string) error {
	result := s.db.WithContext(ctx).
		Where("organization_id = ? AND id = ?", orgID, id).
		Delete(&models.AutomationRule{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *RuleService) nameTaken(ctx context.Context, orgID, name, excludeID string) (bool, error) {
	q := s.db.WithContext(ctx).
		Model(&models.AutomationRule{}).
		Where("organization_id = ? AND name = ?", orgID, name)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
