package services

import (
	"context"
	"errors"
	"fmt"

	"nexcrm/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type CustomerService struct {
	db      *gorm.DB
	logger  *logrus.Logger
	trigger automationTrigger
}

func NewCustomerService(db *gorm.DB, logger *logrus.Logger, engine *Engine, records *RecordRepository) *CustomerService {
	if logger == nil {
		logger = logrus.New()
	}
	return &CustomerService{
		db:      db,
		logger:  logger,
		trigger: newAutomationTrigger(engine, records, logger),
	}
}

type CustomerRequest struct {
	Name       string `json:"name" binding:"required"`
	Email      string `json:"email" binding:"required"`
	Phone      string `json:"phone"`
	Company    string `json:"company"`
	City       string `json:"city"`
	Country    string `json:"country"`
	AssignedTo string `json:"assigned_to"`
}

func (s *CustomerService) Create(ctx context.Context, orgID, userID string, req *CustomerRequest) (*models.Customer, error) {
	if req == nil {
		return nil, fmt.Errorf("request required")
	}
	customer := &models.Customer{
		OrganizationID: orgID,
		Name:           req.Name,
		Email:          req.Email,
		Phone:          req.Phone,
		Company:        req.Company,
		City:           req.City,
		Country:        req.Country,
		AssignedTo:     req.AssignedTo,
		CreatedBy:      userID,
	}
	if err := s.db.WithContext(ctx).Create(customer).Error; err != nil {
		return nil, err
	}

	snap := s.trigger.snapshot(ctx, orgID, models.ModuleCustomer, customer.ID)
	s.trigger.fire(ctx, orgID, models.ModuleCustomer, models.EventCreated, snap)

	return s.Get(ctx, orgID, customer.ID)
}

func (s *CustomerService) Get(ctx context.Context, orgID, id string) (*models.Customer, error) {
	var customer models.Customer
	err := s.db.WithContext(ctx).
		Where("organization_id = ? AND id = ?", orgID, id).
		Take(&customer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &customer, nil
}

func (s *CustomerService) List(ctx context.Context, orgID string) ([]models.Customer, error) {
	var customers []models.Customer
	err := s.db.WithContext(ctx).
		Where("organization_id = ?", orgID).
		Order("created_at DESC").
		Find(&customers).Error
	if err != nil {
		return nil, err
	}
	return customers, nil
}

func (s *CustomerService) Update(ctx context.Context, orgID, id string, req *CustomerRequest) (*models.Customer, error) {
	if req == nil {
		return nil, fmt.Errorf("request required")
	}
	customer, err := s.Get(ctx, orgID, id)
	if err != nil {
		return nil, err
	}

	customer.Name = req.Name
	customer.Email = req.Email
	customer.Phone = req.Phone
	customer.Company = req.Company
	customer.City = req.City
	customer.Country = req.Country
	customer.AssignedTo = req.AssignedTo
	if err := s.db.WithContext(ctx).Save(customer).Error; err != nil {
		return nil, err
	}

	snap := s.trigger.snapshot(ctx, orgID, models.ModuleCustomer, customer.ID)
	s.trigger.fire(ctx, orgID, models.ModuleCustomer, models.EventUpdated, snap)

	return s.Get(ctx, orgID, customer.ID)
}

func (s *CustomerService) Delete(ctx context.Context, orgID, id string) error {
	snap := s.trigger.snapshot(ctx, orgID, models.ModuleCustomer, id)

	result := s.db.WithContext(ctx).
		Where("organization_id = ? AND id = ?", orgID, id).
		Delete(&models.Customer{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	s.trigger.fire(ctx, orgID, models.ModuleCustomer, models.EventDeleted, snap)
	return nil
}
