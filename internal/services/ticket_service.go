package services

import (
	"context"
	"errors"
	"fmt"

	"nexcrm/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type TicketService struct {
	db      *gorm.DB
	logger  *logrus.Logger
	trigger automationTrigger
}

func NewTicketService(db *gorm.DB, logger *logrus.Logger, engine *Engine, records *RecordRepository) *TicketService {
	if logger == nil {
		logger = logrus.New()
	}
	return &TicketService{
		db:      db,
		logger:  logger,
		trigger: newAutomationTrigger(engine, records, logger),
	}
}

type TicketRequest struct {
	Subject     string `json:"subject" binding:"required"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	Category    string `json:"category"`
	CustomerID  string `json:"customer_id"`
	AssignedTo  string `json:"assigned_to"`
}

func (s *TicketService) Create(ctx context.Context, orgID, userID string, req *TicketRequest) (*models.Ticket, error) {
	if req == nil {
		return nil, fmt.Errorf("request required")
	}
	ticket := &models.Ticket{
		OrganizationID: orgID,
		Subject:        req.Subject,
		Description:    req.Description,
		Status:         req.Status,
		Priority:       req.Priority,
		Category:       req.Category,
		CustomerID:     req.CustomerID,
		AssignedTo:     req.AssignedTo,
		CreatedBy:      userID,
	}
	if ticket.Status == "" {
		ticket.Status = "open"
	}
	if ticket.Priority == "" {
		ticket.Priority = "medium"
	}
	if err := s.db.WithContext(ctx).Create(ticket).Error; err != nil {
		return nil, err
	}

	snap := s.trigger.snapshot(ctx, orgID, models.ModuleTicket, ticket.ID)
	s.trigger.fire(ctx, orgID, models.ModuleTicket, models.EventCreated, snap)

	return s.Get(ctx, orgID, ticket.ID)
}

func (s *TicketService) Get(ctx context.Context, orgID, id string) (*models.Ticket, error) {
	var ticket models.Ticket
	err := s.db.WithContext(ctx).
		Where("organization_id = ? AND id = ?", orgID, id).
		Take(&ticket).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ticket, nil
}

func (s *TicketService) List(ctx context.Context, orgID string) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := s.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("created_at DESC").
		Find(&tickets).Error
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

func (s *TicketService) Update(ctx context.Context, orgID, id string, req *TicketRequest) (*models.Ticket, error) {
	if req == nil {
		return nil, fmt.Errorf("request required")
	}
	ticket, err := s.Get(ctx, orgID, id)
	if err != nil {
		return nil, err
	}

	ticket.Subject = req.Subject
	ticket.Description = req.Description
	if req.Status != "" {
		ticket.Status = req.Status
	}
	if req.Priority != "" {
		ticket.Priority = req.Priority
	}
	ticket.Category = req.Category
	ticket.CustomerID = req.CustomerID
	ticket.AssignedTo = req.AssignedTo
	if err := s.db.WithContext(ctx).Save(ticket).Error; err != nil {
		return nil, err
	}

	snap := s.trigger.snapshot(ctx, orgID, models.ModuleTicket, ticket.ID)
	s.trigger.fire(ctx, orgID, models.ModuleTicket, models.EventUpdated, snap)

	return s.Get(ctx, orgID, ticket.ID)
}

func (s *TicketService) Delete(ctx context.Context, orgID, id string) error {
	snap := s.trigger.snapshot(ctx, orgID, models.ModuleTicket, id)

	result := s.db.WithContext(ctx).
		Where("organization_id = ? AND id = ?", orgID, id).
		Delete(&models.Ticket{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	s.trigger.fire(ctx, orgID, models.ModuleTicket, models.EventDeleted, snap)
	return nil
}
