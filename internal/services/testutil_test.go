package services

import (
	"testing"

	"nexcrm/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Organization{}, &models.User{},
		&models.Lead{}, &models.Deal{}, &models.Customer{}, &models.Activity{}, &models.Ticket{},
		&models.Notification{}, &models.AutomationRule{},
	); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

// newTestEngine wires the full automation core over an in-memory database and
// returns the pieces tests commonly need.
func newTestEngine(t *testing.T) (*gorm.DB, *Engine, *RuleService, *RecordRepository, *NotificationService) {
	t.Helper()
	db := newTestDB(t)
	logger := newTestLogger()
	records := NewRecordRepository(db)
	notifications := NewNotificationService(db, nil, logger)
	rules := NewRuleService(db, logger)
	executor := NewActionExecutor(records, notifications, logger)
	engine := NewEngine(rules, executor, logger)
	return db, engine, rules, records, notifications
}

func boolPtr(b bool) *bool { return &b }
