package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Module identifies an entity type that can originate a trigger.
type Module string

const (
	ModuleLead     Module = "Lead"
	ModuleDeal     Module = "Deal"
	ModuleCustomer Module = "Customer"
	ModuleActivity Module = "Activity"
	ModuleTicket   Module = "Ticket"
)

func (m Module) Valid() bool {
	switch m {
	case ModuleLead, ModuleDeal, ModuleCustomer, ModuleActivity, ModuleTicket:
		return true
	}
	return false
}

// TableName returns the storage table for the module. It doubles as the URL
// path segment for notification links ("/leads", "/deals", ...).
func (m Module) TableName() string {
	if m == ModuleActivity {
		return "activities"
	}
	return strings.ToLower(string(m)) + "s"
}

// Event is the mutation kind that fires a trigger.
type Event string

const (
	EventCreated Event = "Created"
	EventUpdated Event = "Updated"
	EventDeleted Event = "Deleted"
)

func (e Event) Valid() bool {
	switch e {
	case EventCreated, EventUpdated, EventDeleted:
		return true
	}
	return false
}

type Operator string

const (
	OperatorEquals      Operator = "equals"
	OperatorNotEquals   Operator = "not_equals"
	OperatorContains    Operator = "contains"
	OperatorGreaterThan Operator = "greater_than"
	OperatorLessThan    Operator = "less_than"
)

func (o Operator) Valid() bool {
	switch o {
	case OperatorEquals, OperatorNotEquals, OperatorContains, OperatorGreaterThan, OperatorLessThan:
		return true
	}
	return false
}

// Condition is one comparison against a record field. Conditions on a rule are
// combined with AND semantics.
type Condition struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value"`
}

// ConditionList persists as a JSON text column.
type ConditionList []Condition

func (l ConditionList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *ConditionList) Scan(src any) error {
	b, err := jsonColumnBytes(src)
	if err != nil {
		return fmt.Errorf("scan conditions: %w", err)
	}
	if len(b) == 0 {
		*l = nil
		return nil
	}
	return json.Unmarshal(b, l)
}

type ActionType string

const (
	ActionUpdateField      ActionType = "update_field"
	ActionAssignUser       ActionType = "assign_user"
	ActionCreateTask       ActionType = "create_task"
	ActionSendNotification ActionType = "send_notification"
)

// Action is the closed set of side effects a rule may perform. Each variant
// carries only the fields relevant to its kind; the JSON form is a flat object
// tagged with "type".
type Action interface {
	ActionType() ActionType
}

// UpdateFieldAction patches a single field on the triggering record.
type UpdateFieldAction struct {
	TargetField string `json:"target_field"`
	TargetValue any    `json:"target_value"`
}

func (UpdateFieldAction) ActionType() ActionType { return ActionUpdateField }

// AssignUserAction reassigns the triggering record to a user.
type AssignUserAction struct {
	TargetUserID string `json:"target_user_id"`
}

func (AssignUserAction) ActionType() ActionType { return ActionAssignUser }

// CreateTaskAction creates a task Activity linked to the triggering record.
type CreateTaskAction struct {
	Subject      string `json:"subject"`
	Description  string `json:"description"`
	DaysUntilDue int    `json:"days_until_due"`
}

func (CreateTaskAction) ActionType() ActionType { return ActionCreateTask }

// SendNotificationAction delivers an in-app notification to a specific user.
// Title, Message, Severity and Link fall back to defaults when empty.
type SendNotificationAction struct {
	TargetUserID string `json:"target_user_id"`
	Title        string `json:"title,omitempty"`
	Message      string `json:"message,omitempty"`
	Severity     string `json:"severity,omitempty"`
	Link         string `json:"link,omitempty"`
}

func (SendNotificationAction) ActionType() ActionType { return ActionSendNotification }

// ActionList marshals to/from the tagged JSON array stored on a rule.
type ActionList []Action

func (l ActionList) MarshalJSON() ([]byte, error) {
	out := make([]map[string]any, 0, len(l))
	for _, a := range l {
		b, err := json.Marshal(a)
		if err != nil {
			return nil, err
		}
		m := map[string]any{}
		if err := json.Unmarshal(b, &m); err != nil {
			return nil, err
		}
		m["type"] = a.ActionType()
		out = append(out, m)
	}
	return json.Marshal(out)
}

func (l *ActionList) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	list := make(ActionList, 0, len(raw))
	for _, r := range raw {
		var head struct {
			Type ActionType `json:"type"`
		}
		if err := json.Unmarshal(r, &head); err != nil {
			return err
		}
		a, err := decodeAction(head.Type, r)
		if err != nil {
			return err
		}
		list = append(list, a)
	}
	*l = list
	return nil
}

func decodeAction(t ActionType, data []byte) (Action, error) {
	switch t {
	case ActionUpdateField:
		var a UpdateFieldAction
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, err
		}
		return a, nil
	case ActionAssignUser:
		var a AssignUserAction
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, err
		}
		return a, nil
	case ActionCreateTask:
		var a CreateTaskAction
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, err
		}
		return a, nil
	case ActionSendNotification:
		var a SendNotificationAction
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, err
		}
		return a, nil
	default:
		return nil, fmt.Errorf("unknown action type %q", t)
	}
}

func (l ActionList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *ActionList) Scan(src any) error {
	b, err := jsonColumnBytes(src)
	if err != nil {
		return fmt.Errorf("scan actions: %w", err)
	}
	if len(b) == 0 {
		*l = nil
		return nil
	}
	return l.UnmarshalJSON(b)
}

func jsonColumnBytes(src any) ([]byte, error) {
	switch v := src.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported column type %T", src)
	}
}

// AutomationRule is a tenant-owned "when trigger fires and conditions hold,
// run actions" definition. Names are unique per organization; inactive rules
// are never evaluated.
type AutomationRule struct {
	ID             string        `gorm:"primaryKey;size:36" json:"id"`
	OrganizationID string        `gorm:"size:36;not null;uniqueIndex:idx_rules_org_name;index:idx_rules_org_trigger" json:"organization_id"`
	Name           string        `gorm:"not null;uniqueIndex:idx_rules_org_name" json:"name"`
	Description    string        `gorm:"type:text" json:"description"`
	IsActive       bool          `json:"is_active"`
	TriggerModule  Module        `gorm:"size:16;not null;index:idx_rules_org_trigger" json:"trigger_module"`
	TriggerEvent   Event         `gorm:"size:16;not null;index:idx_rules_org_trigger" json:"trigger_event"`
	Conditions     ConditionList `gorm:"type:text" json:"conditions"`
	Actions        ActionList    `gorm:"type:text" json:"actions"`
	CreatedBy      string        `gorm:"size:36" json:"created_by"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

func (r *AutomationRule) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
