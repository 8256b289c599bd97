package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"nexcrm/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Record is a dynamic snapshot of a business record: its module, id and a
// column-name-keyed field map. It is the shape automation rules evaluate
// against and the shape actions patch through.
type Record struct {
	Module models.Module
	ID     string
	Fields map[string]any
}

// StringField returns the record's value for a field as a string, or "" when
// the field is absent, nil or not a string.
func (r *Record) StringField(name string) string {
	if r == nil || r.Fields == nil {
		return ""
	}
	s, _ := r.Fields[name].(string)
	return s
}

// RecordRepository gives tenant-scoped dynamic access to every module's table.
// Field maps use column names; validation beyond column existence is left to
// the schema.
type RecordRepository struct {
	db *gorm.DB
}

func NewRecordRepository(db *gorm.DB) *RecordRepository {
	return &RecordRepository{db: db}
}

// LoadByID fetches one record scoped to the organization. Records of other
// organizations surface as ErrNotFound.
func (r *RecordRepository) LoadByID(ctx context.Context, orgID string, module models.Module, id string) (*Record, error) {
	if !module.Valid() {
		return nil, fmt.Errorf("unknown module %q", module)
	}
	fields := map[string]any{}
	err := r.db.WithContext(ctx).
		Table(module.TableName()).
		Where("organization_id = ? AND id = ?", orgID, id).
		Take(&fields).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &Record{Module: module, ID: id, Fields: fields}, nil
}

// PatchFields updates the named columns on a record and returns the fresh
// snapshot. The existence check runs first so a patch against a foreign or
// missing record fails with ErrNotFound before touching anything.
func (r *RecordRepository) PatchFields(ctx context.Context, orgID string, module models.Module, id string, fields map[string]any) (*Record, error) {
	if _, err := r.LoadByID(ctx, orgID, module, id); err != nil {
		return nil, err
	}
	patch := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		patch[k] = v
	}
	patch["updated_at"] = time.Now()
	err := r.db.WithContext(ctx).
		Table(module.TableName()).
		Where("organization_id = ? AND id = ?", orgID, id).
		Updates(patch).Error
	if err != nil {
		return nil, err
	}
	return r.LoadByID(ctx, orgID, module, id)
}

// Create inserts a new record owned by the organization and returns it. The
// id, organization and timestamps are filled in here; callers supply only the
// business fields.
func (r *RecordRepository) Create(ctx context.Context, orgID string, module models.Module, fields map[string]any) (*Record, error) {
	if !module.Valid() {
		return nil, fmt.Errorf("unknown module %q", module)
	}
	now := time.Now()
	row := make(map[string]any, len(fields)+4)
	for k, v := range fields {
		row[k] = v
	}
	id := uuid.NewString()
	row["id"] = id
	row["organization_id"] = orgID
	row["created_at"] = now
	row["updated_at"] = now
	err := r.db.WithContext(ctx).
		Table(module.TableName()).
		Create(&row).Error
	if err != nil {
		return nil, err
	}
	return r.LoadByID(ctx, orgID, module, id)
}
