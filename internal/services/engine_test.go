package services

import (
	"context"
	"testing"

	"nexcrm/internal/models"
)

func mustCreateRule(t *testing.T, rules *RuleService, orgID string, req *RuleRequest) *models.AutomationRule {
	t.Helper()
	rule, err := rules.Create(context.Background(), orgID, "u-admin", req)
	if err != nil {
		t.Fatalf("create rule %q: %v", req.Name, err)
	}
	return rule
}

func TestEngineMatchingRuleFiresAndNonMatchingDoesNot(t *testing.T) {
	db, engine, rules, records, _ := newTestEngine(t)
	ctx := context.Background()

	// One rule with no conditions fires on every lead creation; one with a
	// condition the record fails must stay silent.
	mustCreateRule(t, rules, "org-a", &RuleRequest{
		Name:          "tag-all-new-leads",
		TriggerModule: models.ModuleLead,
		TriggerEvent:  models.EventCreated,
		Actions: models.ActionList{
			models.UpdateFieldAction{TargetField: "status", TargetValue: "contacted"},
		},
	})
	mustCreateRule(t, rules, "org-a", &RuleRequest{
		Name:          "only-referrals",
		TriggerModule: models.ModuleLead,
		TriggerEvent:  models.EventCreated,
		Conditions: models.ConditionList{
			{Field: "source", Operator: models.OperatorEquals, Value: "referral"},
		},
		Actions: models.ActionList{
			models.AssignUserAction{TargetUserID: "u-referral-desk"},
		},
	})

	rec, err := records.Create(ctx, "org-a", models.ModuleLead, map[string]any{
		"name": "Ada Lovelace", "source": "website", "status": "new", "created_by": "u-1",
	})
	if err != nil {
		t.Fatalf("create lead: %v", err)
	}
	if err := engine.EvaluateAndExecute(ctx, "org-a", models.ModuleLead, models.EventCreated, rec); err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	var lead models.Lead
	if err := db.Where("id = ?", rec.ID).Take(&lead).Error; err != nil {
		t.Fatalf("reload lead: %v", err)
	}
	if lead.Status != "contacted" {
		t.Fatalf("status = %q, want contacted (unconditional rule should fire)", lead.Status)
	}
	if lead.AssignedTo != "" {
		t.Fatalf("assigned_to = %q, want empty (referral rule should not fire)", lead.AssignedTo)
	}
}

func TestEngineFailingActionDoesNotStopRestOfPass(t *testing.T) {
	db, engine, rules, records, _ := newTestEngine(t)
	ctx := context.Background()

	// First rule's first action is broken; its second action and the whole
	// second rule must still run.
	mustCreateRule(t, rules, "org-a", &RuleRequest{
		Name:          "partially-broken",
		TriggerModule: models.ModuleLead,
		TriggerEvent:  models.EventCreated,
		Actions: models.ActionList{
			models.SendNotificationAction{TargetUserID: ""}, // fails: no target
			models.UpdateFieldAction{TargetField: "status", TargetValue: "contacted"},
		},
	})
	mustCreateRule(t, rules, "org-a", &RuleRequest{
		Name:          "assign-owner",
		TriggerModule: models.ModuleLead,
		TriggerEvent:  models.EventCreated,
		Actions: models.ActionList{
			models.AssignUserAction{TargetUserID: "u-owner"},
		},
	})

	rec, err := records.Create(ctx, "org-a", models.ModuleLead, map[string]any{
		"name": "Grace Hopper", "source": "website", "status": "new",
	})
	if err != nil {
		t.Fatalf("create lead: %v", err)
	}
	if err := engine.EvaluateAndExecute(ctx, "org-a", models.ModuleLead, models.EventCreated, rec); err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	var lead models.Lead
	if err := db.Where("id = ?", rec.ID).Take(&lead).Error; err != nil {
		t.Fatalf("reload lead: %v", err)
	}
	if lead.Status != "contacted" {
		t.Fatalf("status = %q; action after a failed one should still run", lead.Status)
	}
	if lead.AssignedTo != "u-owner" {
		t.Fatalf("assigned_to = %q; rule after a failing rule should still run", lead.AssignedTo)
	}
}

func TestEngineIgnoresRulesOfOtherTriggersAndTenants(t *testing.T) {
	db, engine, rules, records, _ := newTestEngine(t)
	ctx := context.Background()

	mustCreateRule(t, rules, "org-a", &RuleRequest{
		Name:          "on-update-only",
		TriggerModule: models.ModuleLead,
		TriggerEvent:  models.EventUpdated,
		Actions: models.ActionList{
			models.UpdateFieldAction{TargetField: "status", TargetValue: "qualified"},
		},
	})
	mustCreateRule(t, rules, "org-b", &RuleRequest{
		Name:          "foreign-org",
		TriggerModule: models.ModuleLead,
		TriggerEvent:  models.EventCreated,
		Actions: models.ActionList{
			models.UpdateFieldAction{TargetField: "status", TargetValue: "hijacked"},
		},
	})

	rec, err := records.Create(ctx, "org-a", models.ModuleLead, map[string]any{
		"name": "Ada", "source": "website", "status": "new",
	})
	if err != nil {
		t.Fatalf("create lead: %v", err)
	}
	if err := engine.EvaluateAndExecute(ctx, "org-a", models.ModuleLead, models.EventCreated, rec); err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	var lead models.Lead
	if err := db.Where("id = ?", rec.ID).Take(&lead).Error; err != nil {
		t.Fatalf("reload lead: %v", err)
	}
	if lead.Status != "new" {
		t.Fatalf("status = %q, want new untouched", lead.Status)
	}
}

func TestEngineNilRecordIsNoOp(t *testing.T) {
	_, engine, _, _, _ := newTestEngine(t)
	if err := engine.EvaluateAndExecute(context.Background(), "org-a", models.ModuleLead, models.EventCreated, nil); err != nil {
		t.Fatalf("nil record should be a no-op, got %v", err)
	}
}

func TestLeadCreateTriggersAutomation(t *testing.T) {
	db, engine, rules, records, _ := newTestEngine(t)
	ctx := context.Background()
	leads := NewLeadService(db, newTestLogger(), engine, records)

	mustCreateRule(t, rules, "org-a", &RuleRequest{
		Name:          "route-website-leads",
		TriggerModule: models.ModuleLead,
		TriggerEvent:  models.EventCreated,
		Conditions: models.ConditionList{
			{Field: "source", Operator: models.OperatorEquals, Value: "Website"},
		},
		Actions: models.ActionList{
			models.AssignUserAction{TargetUserID: "u-web-desk"},
		},
	})

	// Condition value is capitalized; matching is case-insensitive.
	created, err := leads.Create(ctx, "org-a", "u-1", &LeadRequest{
		Name:   "Ada Lovelace",
		Email:  "ada@example.com",
		Source: "website",
	})
	if err != nil {
		t.Fatalf("create lead: %v", err)
	}
	if created.AssignedTo != "u-web-desk" {
		t.Fatalf("assigned_to = %q, want u-web-desk", created.AssignedTo)
	}

	// A lead from another source is left alone.
	other, err := leads.Create(ctx, "org-a", "u-1", &LeadRequest{
		Name:   "Grace Hopper",
		Source: "referral",
	})
	if err != nil {
		t.Fatalf("create lead: %v", err)
	}
	if other.AssignedTo != "" {
		t.Fatalf("assigned_to = %q, want empty for referral lead", other.AssignedTo)
	}
}

func TestLeadUpdateAndDeleteTriggerAutomation(t *testing.T) {
	db, engine, rules, records, notifications := newTestEngine(t)
	ctx := context.Background()
	leads := NewLeadService(db, newTestLogger(), engine, records)

	mustCreateRule(t, rules, "org-a", &RuleRequest{
		Name:          "notify-on-qualified",
		TriggerModule: models.ModuleLead,
		TriggerEvent:  models.EventUpdated,
		Conditions: models.ConditionList{
			{Field: "status", Operator: models.OperatorEquals, Value: "qualified"},
		},
		Actions: models.ActionList{
			models.SendNotificationAction{TargetUserID: "u-mgr", Title: "Lead qualified"},
		},
	})
	mustCreateRule(t, rules, "org-a", &RuleRequest{
		Name:          "notify-on-delete",
		TriggerModule: models.ModuleLead,
		TriggerEvent:  models.EventDeleted,
		Actions: models.ActionList{
			models.SendNotificationAction{TargetUserID: "u-mgr", Title: "Lead removed"},
		},
	})

	lead, err := leads.Create(ctx, "org-a", "u-1", &LeadRequest{Name: "Ada", Source: "website"})
	if err != nil {
		t.Fatalf("create lead: %v", err)
	}

	if _, err := leads.Update(ctx, "org-a", lead.ID, &LeadRequest{Name: "Ada", Status: "qualified"}); err != nil {
		t.Fatalf("update lead: %v", err)
	}
	if err := leads.Delete(ctx, "org-a", lead.ID); err != nil {
		t.Fatalf("delete lead: %v", err)
	}

	got, err := notifications.List(ctx, "org-a", "u-mgr", false)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(got))
	}
	titles := map[string]bool{}
	for _, n := range got {
		titles[n.Title] = true
	}
	if !titles["Lead qualified"] || !titles["Lead removed"] {
		t.Fatalf("unexpected notification titles: %v", titles)
	}
}

func TestRuleEditsApplyOnNextEvent(t *testing.T) {
	db, engine, rules, records, _ := newTestEngine(t)
	ctx := context.Background()
	leads := NewLeadService(db, newTestLogger(), engine, records)

	rule := mustCreateRule(t, rules, "org-a", &RuleRequest{
		Name:          "assign-everything",
		TriggerModule: models.ModuleLead,
		TriggerEvent:  models.EventCreated,
		Actions: models.ActionList{
			models.AssignUserAction{TargetUserID: "u-first"},
		},
	})

	first, err := leads.Create(ctx, "org-a", "u-1", &LeadRequest{Name: "One"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if first.AssignedTo != "u-first" {
		t.Fatalf("assigned_to = %q", first.AssignedTo)
	}

	// Deactivate the rule; the next creation must evaluate the fresh state.
	req := &RuleRequest{
		Name:          "assign-everything",
		TriggerModule: models.ModuleLead,
		TriggerEvent:  models.EventCreated,
		Actions: models.ActionList{
			models.AssignUserAction{TargetUserID: "u-first"},
		},
		IsActive: boolPtr(false),
	}
	if _, err := rules.Update(ctx, "org-a", rule.ID, req); err != nil {
		t.Fatalf("deactivate rule: %v", err)
	}

	second, err := leads.Create(ctx, "org-a", "u-1", &LeadRequest{Name: "Two"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if second.AssignedTo != "" {
		t.Fatalf("assigned_to = %q, want empty after deactivation", second.AssignedTo)
	}
}
