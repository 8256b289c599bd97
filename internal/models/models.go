package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Organization is the tenant boundary. Every business record and every
// automation rule belongs to exactly one organization.
type Organization struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Plan      string    `gorm:"default:'free'" json:"plan"` // free, pro, enterprise
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (o *Organization) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

type User struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	OrganizationID string    `gorm:"size:36;index" json:"organization_id"`
	Name           string    `gorm:"not null" json:"name"`
	Email          string    `gorm:"unique;not null" json:"email"`
	Role           string    `gorm:"default:'member'" json:"role"` // member, manager, admin
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

type Lead struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	OrganizationID string    `gorm:"size:36;index;not null" json:"organization_id"`
	Name           string    `gorm:"not null" json:"name"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	Company        string    `json:"company"`
	Source         string    `gorm:"default:'other'" json:"source"` // website, referral, linkedin, cold_call, other
	Status         string    `gorm:"default:'new'" json:"status"`   // new, contacted, qualified, converted, lost
	AssignedTo     string    `gorm:"size:36" json:"assigned_to"`
	Notes          string    `gorm:"type:text" json:"notes"`
	Tags           string    `json:"tags"` // comma separated
	CreatedBy      string    `gorm:"size:36" json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (l *Lead) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

type Deal struct {
	ID                string     `gorm:"primaryKey;size:36" json:"id"`
	OrganizationID    string     `gorm:"size:36;index;not null" json:"organization_id"`
	Title             string     `gorm:"not null" json:"title"`
	Value             float64    `json:"value"`
	Currency          string     `gorm:"default:'USD'" json:"currency"`
	Stage             string     `gorm:"default:'Discovery'" json:"stage"` // Discovery, Demo, Proposal, Negotiation, Closed Won, Closed Lost
	Probability       int        `gorm:"default:10" json:"probability"`
	ExpectedCloseDate *time.Time `json:"expected_close_date"`
	ContactPerson     string     `gorm:"size:36" json:"contact_person"`
	AssignedTo        string     `gorm:"size:36" json:"assigned_to"`
	Notes             string     `gorm:"type:text" json:"notes"`
	CreatedBy         string     `gorm:"size:36" json:"created_by"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func (d *Deal) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

type Customer struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	OrganizationID string    `gorm:"size:36;index;not null" json:"organization_id"`
	Name           string    `gorm:"not null" json:"name"`
	Email          string    `gorm:"not null" json:"email"`
	Phone          string    `json:"phone"`
	Company        string    `json:"company"`
	City           string    `json:"city"`
	Country        string    `json:"country"`
	AssignedTo     string    `gorm:"size:36" json:"assigned_to"`
	CreatedBy      string    `gorm:"size:36" json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// Activity covers calls, meetings, emails, notes and tasks. Tasks created by
// automation rules land here with Type = "task" and a RelatedTo reference back
// to the record that triggered the rule.
type Activity struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	OrganizationID string    `gorm:"size:36;index;not null" json:"organization_id"`
	Type           string    `gorm:"not null" json:"type"` // call, meeting, email, task, note
	Subject        string    `gorm:"not null" json:"subject"`
	Description    string    `gorm:"type:text" json:"description"`
	Date           time.Time `json:"date"`                           // due date or event date
	Status         string    `gorm:"default:'pending'" json:"status"` // pending, completed, cancelled
	RelatedToModel string    `gorm:"size:16" json:"related_to_model"`
	RelatedToID    string    `gorm:"size:36;index" json:"related_to_id"`
	AssignedTo     string    `gorm:"size:36" json:"assigned_to"`
	CreatedBy      string    `gorm:"size:36" json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (a *Activity) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

type Ticket struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	OrganizationID string    `gorm:"size:36;index;not null" json:"organization_id"`
	Subject        string    `gorm:"not null" json:"subject"`
	Description    string    `gorm:"type:text" json:"description"`
	Status         string    `gorm:"default:'open'" json:"status"`     // open, in_progress, waiting, resolved, closed
	Priority       string    `gorm:"default:'medium'" json:"priority"` // low, medium, high, urgent
	Category       string    `json:"category"`
	CustomerID     string    `gorm:"size:36;index" json:"customer_id"`
	AssignedTo     string    `gorm:"size:36" json:"assigned_to"`
	CreatedBy      string    `gorm:"size:36" json:"created_by"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (t *Ticket) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

type Notification struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	OrganizationID string    `gorm:"size:36;index;not null" json:"organization_id"`
	UserID         string    `gorm:"size:36;index:idx_notifications_user_read" json:"user_id"`
	Title          string    `gorm:"not null" json:"title"`
	Message        string    `gorm:"type:text" json:"message"`
	Severity       string    `gorm:"default:'info'" json:"severity"` // info, success, warning, error
	Link           string    `json:"link"`
	IsRead         bool      `gorm:"index:idx_notifications_user_read" json:"is_read"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}
