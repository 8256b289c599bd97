package services

import (
	"context"
	"fmt"
	"time"

	"nexcrm/internal/models"

	"github.com/sirupsen/logrus"
)

// NotificationSink delivers an in-app notification. Implementations must
// treat delivery as best-effort; the executor never retries.
type NotificationSink interface {
	Send(ctx context.Context, orgID, userID, title, message, severity, link string) error
}

// ActionError records one failed action from an execution pass.
type ActionError struct {
	RuleID     string
	Index      int
	ActionType models.ActionType
	Err        error
}

func (e ActionError) Error() string {
	return fmt.Sprintf("action %d (%s) of rule %s: %v", e.Index, e.ActionType, e.RuleID, e.Err)
}

// ActionExecutor performs the side effects of matched rules. Failures are
// collected, not propagated: one broken action must not stop the ones after
// it, and must never surface to the caller that triggered the mutation.
type ActionExecutor struct {
	records  *RecordRepository
	notifier NotificationSink
	logger   *logrus.Logger
	now      func() time.Time
}

func NewActionExecutor(records *RecordRepository, notifier NotificationSink, logger *logrus.Logger) *ActionExecutor {
	if logger == nil {
		logger = logrus.New()
	}
	return &ActionExecutor{
		records:  records,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// ExecuteAll runs the rule's actions in declared order and returns the
// failures. The returned slice is empty when every action succeeded.
func (e *ActionExecutor) ExecuteAll(ctx context.Context, orgID string, module models.Module, rec *Record, rule *models.AutomationRule) []ActionError {
	var failed []ActionError
	for i, action := range rule.Actions {
		if err := e.Execute(ctx, orgID, module, rec, action); err != nil {
			failed = append(failed, ActionError{
				RuleID:     rule.ID,
				Index:      i,
				ActionType: action.ActionType(),
				Err:        err,
			})
		}
	}
	return failed
}

// Execute performs a single action against the triggering record.
func (e *ActionExecutor) Execute(ctx context.Context, orgID string, module models.Module, rec *Record, action models.Action) error {
	switch a := action.(type) {
	case models.UpdateFieldAction:
		return e.updateField(ctx, orgID, module, rec, a)
	case models.AssignUserAction:
		return e.assignUser(ctx, orgID, module, rec, a)
	case models.CreateTaskAction:
		return e.createTask(ctx, orgID, module, rec, a)
	case models.SendNotificationAction:
		return e.sendNotification(ctx, orgID, module, a)
	default:
		return fmt.Errorf("unsupported action type %q", action.ActionType())
	}
}

func (e *ActionExecutor) updateField(ctx context.Context, orgID string, module models.Module, rec *Record, a models.UpdateFieldAction) error {
	if a.TargetField == "" {
		return fmt.Errorf("update_field: target field required")
	}
	_, err := e.records.PatchFields(ctx, orgID, module, rec.ID, map[string]any{a.TargetField: a.TargetValue})
	if err != nil {
		return fmt.Errorf("update_field %q: %w", a.TargetField, err)
	}
	e.logger.Debugf("automation: updated %s %s field %s", module, rec.ID, a.TargetField)
	return nil
}

func (e *ActionExecutor) assignUser(ctx context.Context, orgID string, module models.Module, rec *Record, a models.AssignUserAction) error {
	if a.TargetUserID == "" {
		return fmt.Errorf("assign_user: target user required")
	}
	_, err := e.records.PatchFields(ctx, orgID, module, rec.ID, map[string]any{"assigned_to": a.TargetUserID})
	if err != nil {
		return fmt.Errorf("assign_user: %w", err)
	}
	e.logger.Debugf("automation: reassigned %s %s to %s", module, rec.ID, a.TargetUserID)
	return nil
}

func (e *ActionExecutor) createTask(ctx context.Context, orgID string, module models.Module, rec *Record, a models.CreateTaskAction) error {
	dueDate := e.now().AddDate(0, 0, a.DaysUntilDue)

	// The task inherits the triggering record's assignee, falling back to
	// its creator when unset.
	assignee := rec.StringField("assigned_to")
	if assignee == "" {
		assignee = rec.StringField("created_by")
	}
	creator := rec.StringField("created_by")
	if creator == "" {
		creator = assignee
	}

	_, err := e.records.Create(ctx, orgID, models.ModuleActivity, map[string]any{
		"type":             "task",
		"subject":          a.Subject,
		"description":      a.Description,
		"status":           "pending",
		"date":             dueDate,
		"assigned_to":      assignee,
		"created_by":       creator,
		"related_to_model": string(module),
		"related_to_id":    rec.ID,
	})
	if err != nil {
		return fmt.Errorf("create_task: %w", err)
	}
	e.logger.Debugf("automation: created task for %s %s", module, rec.ID)
	return nil
}

func (e *ActionExecutor) sendNotification(ctx context.Context, orgID string, module models.Module, a models.SendNotificationAction) error {
	if a.TargetUserID == "" {
		return fmt.Errorf("send_notification: target user required")
	}
	title := a.Title
	if title == "" {
		title = fmt.Sprintf("Automation Alert: %s", module)
	}
	message := a.Message
	if message == "" {
		message = fmt.Sprintf("An automation rule was triggered for %s.", module)
	}
	severity := a.Severity
	if severity == "" {
		severity = "info"
	}
	link := a.Link
	if link == "" {
		link = "/" + module.TableName()
	}
	if err := e.notifier.Send(ctx, orgID, a.TargetUserID, title, message, severity, link); err != nil {
		return fmt.Errorf("send_notification: %w", err)
	}
	return nil
}
