package services

import (
	"context"

	"nexcrm/internal/models"

	"github.com/sirupsen/logrus"
)

// automationTrigger is embedded by the record services so that every
// committed mutation fires exactly one evaluation pass. Engine failures are
// logged and swallowed here: the business write has already succeeded and
// must not appear to fail because automations could not run.
type automationTrigger struct {
	engine  *Engine
	records *RecordRepository
	logger  *logrus.Logger
}

func newAutomationTrigger(engine *Engine, records *RecordRepository, logger *logrus.Logger) automationTrigger {
	if logger == nil {
		logger = logrus.New()
	}
	return automationTrigger{engine: engine, records: records, logger: logger}
}

// snapshot loads the current dynamic view of a record for evaluation.
func (t *automationTrigger) snapshot(ctx context.Context, orgID string, module models.Module, id string) *Record {
	if t.records == nil {
		return nil
	}
	rec, err := t.records.LoadByID(ctx, orgID, module, id)
	if err != nil {
		t.logger.Warnf("automation: snapshot %s %s failed: %v", module, id, err)
		return nil
	}
	return rec
}

// fire runs one evaluation pass for the mutation. nil records (snapshot
// failure) skip the pass entirely.
func (t *automationTrigger) fire(ctx context.Context, orgID string, module models.Module, event models.Event, rec *Record) {
	if t.engine == nil || rec == nil {
		return
	}
	if err := t.engine.EvaluateAndExecute(ctx, orgID, module, event, rec); err != nil {
		t.logger.Warnf("automation: pass for %s %s on %s %s failed: %v", module, event, module, rec.ID, err)
	}
}
