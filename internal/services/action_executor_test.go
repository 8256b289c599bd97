package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"nexcrm/internal/models"
)

type capturedNotification struct {
	orgID, userID, title, message, severity, link string
}

// captureSink records every notification it is asked to deliver and can be
// told to fail.
type captureSink struct {
	sent []capturedNotification
	err  error
}

func (s *captureSink) Send(_ context.Context, orgID, userID, title, message, severity, link string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, capturedNotification{orgID, userID, title, message, severity, link})
	return nil
}

func newTestExecutor(t *testing.T) (*ActionExecutor, *RecordRepository, *captureSink) {
	t.Helper()
	db := newTestDB(t)
	records := NewRecordRepository(db)
	sink := &captureSink{}
	exec := NewActionExecutor(records, sink, newTestLogger())
	return exec, records, sink
}

func seedLead(t *testing.T, records *RecordRepository, orgID string, fields map[string]any) *Record {
	t.Helper()
	rec, err := records.Create(context.Background(), orgID, models.ModuleLead, fields)
	if err != nil {
		t.Fatalf("seed lead: %v", err)
	}
	return rec
}

func TestExecuteUpdateField(t *testing.T) {
	exec, records, _ := newTestExecutor(t)
	ctx := context.Background()
	rec := seedLead(t, records, "org-a", map[string]any{
		"name": "Ada Lovelace", "email": "ada@example.com",
		"source": "website", "status": "new", "created_by": "u-1",
	})

	err := exec.Execute(ctx, "org-a", models.ModuleLead, rec, models.UpdateFieldAction{
		TargetField: "status", TargetValue: "contacted",
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	fresh, err := records.LoadByID(ctx, "org-a", models.ModuleLead, rec.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := fresh.StringField("status"); got != "contacted" {
		t.Fatalf("status = %q, want contacted", got)
	}
}

func TestExecuteAssignUser(t *testing.T) {
	exec, records, _ := newTestExecutor(t)
	ctx := context.Background()
	rec := seedLead(t, records, "org-a", map[string]any{
		"name": "Ada Lovelace", "email": "ada@example.com", "created_by": "u-1",
	})

	err := exec.Execute(ctx, "org-a", models.ModuleLead, rec, models.AssignUserAction{TargetUserID: "u-7"})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	fresh, err := records.LoadByID(ctx, "org-a", models.ModuleLead, rec.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := fresh.StringField("assigned_to"); got != "u-7" {
		t.Fatalf("assigned_to = %q, want u-7", got)
	}
}

func TestExecuteCreateTask(t *testing.T) {
	exec, records, _ := newTestExecutor(t)
	ctx := context.Background()

	fixed := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	exec.now = func() time.Time { return fixed }

	rec := seedLead(t, records, "org-a", map[string]any{
		"name": "Ada Lovelace", "email": "ada@example.com",
		"assigned_to": "u-5", "created_by": "u-1",
	})

	err := exec.Execute(ctx, "org-a", models.ModuleLead, rec, models.CreateTaskAction{
		Subject:      "Call the lead",
		Description:  "Qualify budget and timeline",
		DaysUntilDue: 3,
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	var task models.Activity
	if err := exec.records.db.WithContext(ctx).
		Where("related_to_id = ?", rec.ID).
		Take(&task).Error; err != nil {
		t.Fatalf("load task: %v", err)
	}
	if task.Type != "task" || task.Status != "pending" {
		t.Fatalf("task type/status = %q/%q", task.Type, task.Status)
	}
	if task.Subject != "Call the lead" {
		t.Fatalf("subject = %q", task.Subject)
	}
	if task.AssignedTo != "u-5" {
		t.Fatalf("assigned_to = %q, want u-5", task.AssignedTo)
	}
	if task.RelatedToModel != string(models.ModuleLead) {
		t.Fatalf("related_to_model = %q", task.RelatedToModel)
	}
	wantDue := fixed.AddDate(0, 0, 3)
	if !task.Date.Equal(wantDue) {
		t.Fatalf("due date = %v, want %v", task.Date, wantDue)
	}
}

func TestExecuteCreateTaskFallsBackToCreator(t *testing.T) {
	exec, records, _ := newTestExecutor(t)
	ctx := context.Background()

	// No assignee on the triggering record: the task goes to its creator.
	rec := seedLead(t, records, "org-a", map[string]any{
		"name": "Ada Lovelace", "email": "ada@example.com", "created_by": "u-1",
	})
	err := exec.Execute(ctx, "org-a", models.ModuleLead, rec, models.CreateTaskAction{Subject: "Follow up"})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	var task models.Activity
	if err := exec.records.db.WithContext(ctx).
		Where("related_to_id = ?", rec.ID).
		Take(&task).Error; err != nil {
		t.Fatalf("load task: %v", err)
	}
	if task.AssignedTo != "u-1" {
		t.Fatalf("assigned_to = %q, want creator u-1", task.AssignedTo)
	}
}

func TestExecuteSendNotificationDefaults(t *testing.T) {
	exec, records, sink := newTestExecutor(t)
	ctx := context.Background()
	rec := seedLead(t, records, "org-a", map[string]any{"name": "Ada", "email": "ada@example.com"})

	err := exec.Execute(ctx, "org-a", models.ModuleLead, rec, models.SendNotificationAction{TargetUserID: "u-2"})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(sink.sent) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(sink.sent))
	}
	n := sink.sent[0]
	if n.title != "Automation Alert: Lead" {
		t.Fatalf("title = %q", n.title)
	}
	if n.message != "An automation rule was triggered for Lead." {
		t.Fatalf("message = %q", n.message)
	}
	if n.severity != "info" {
		t.Fatalf("severity = %q", n.severity)
	}
	if n.link != "/leads" {
		t.Fatalf("link = %q", n.link)
	}
}

func TestExecuteSendNotificationExplicitFields(t *testing.T) {
	exec, records, sink := newTestExecutor(t)
	ctx := context.Background()
	rec := seedLead(t, records, "org-a", map[string]any{"name": "Ada", "email": "ada@example.com"})

	err := exec.Execute(ctx, "org-a", models.ModuleLead, rec, models.SendNotificationAction{
		TargetUserID: "u-2",
		Title:        "Hot lead",
		Message:      "Lead came in from the website",
		Severity:     "warning",
		Link:         "/leads/" + rec.ID,
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	n := sink.sent[0]
	if n.title != "Hot lead" || n.severity != "warning" || n.link != "/leads/"+rec.ID {
		t.Fatalf("explicit fields overridden: %+v", n)
	}
}

func TestExecuteAllCollectsFailuresAndContinues(t *testing.T) {
	exec, records, sink := newTestExecutor(t)
	ctx := context.Background()
	rec := seedLead(t, records, "org-a", map[string]any{"name": "Ada", "email": "ada@example.com", "created_by": "u-1"})

	rule := &models.AutomationRule{
		ID: "rule-1",
		Actions: models.ActionList{
			models.UpdateFieldAction{TargetField: "", TargetValue: "x"}, // invalid
			models.SendNotificationAction{TargetUserID: ""},             // invalid
			models.UpdateFieldAction{TargetField: "status", TargetValue: "contacted"},
			models.SendNotificationAction{TargetUserID: "u-2"},
		},
	}

	failed := exec.ExecuteAll(ctx, "org-a", models.ModuleLead, rec, rule)
	if len(failed) != 2 {
		t.Fatalf("expected 2 failures, got %d: %v", len(failed), failed)
	}
	if failed[0].Index != 0 || failed[1].Index != 1 {
		t.Fatalf("failure indexes = %d,%d", failed[0].Index, failed[1].Index)
	}
	if failed[0].ActionType != models.ActionUpdateField {
		t.Fatalf("failure action type = %q", failed[0].ActionType)
	}

	// The actions after the failures still ran.
	fresh, err := records.LoadByID(ctx, "org-a", models.ModuleLead, rec.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := fresh.StringField("status"); got != "contacted" {
		t.Fatalf("status = %q, want contacted", got)
	}
	if len(sink.sent) != 1 {
		t.Fatalf("expected 1 delivered notification, got %d", len(sink.sent))
	}
}

func TestExecuteAgainstForeignRecordFails(t *testing.T) {
	exec, records, _ := newTestExecutor(t)
	ctx := context.Background()
	rec := seedLead(t, records, "org-a", map[string]any{"name": "Ada", "email": "ada@example.com"})

	// The executor runs under the rule's organization; a record belonging to
	// another tenant must not be reachable.
	err := exec.Execute(ctx, "org-b", models.ModuleLead, rec, models.UpdateFieldAction{
		TargetField: "status", TargetValue: "contacted",
	})
	if err == nil {
		t.Fatal("expected error patching a foreign record")
	}
}

func TestExecuteSinkFailureSurfaces(t *testing.T) {
	exec, records, sink := newTestExecutor(t)
	sink.err = fmt.Errorf("socket closed")
	ctx := context.Background()
	rec := seedLead(t, records, "org-a", map[string]any{"name": "Ada", "email": "ada@example.com"})

	err := exec.Execute(ctx, "org-a", models.ModuleLead, rec, models.SendNotificationAction{TargetUserID: "u-2"})
	if err == nil {
		t.Fatal("expected sink failure to surface as action error")
	}
}
