package services

import (
	"context"
	"fmt"

	"nexcrm/internal/metrics"
	"nexcrm/internal/models"

	"github.com/sirupsen/logrus"
)

// Engine evaluates automation rules for one triggering mutation and drives
// the action executor for matches. It runs synchronously in the caller's
// request path and holds no state between passes: rules are read fresh on
// every trigger, so edits take effect on the next event.
type Engine struct {
	rules    *RuleService
	executor *ActionExecutor
	logger   *logrus.Logger
}

func NewEngine(rules *RuleService, executor *ActionExecutor, logger *logrus.Logger) *Engine {
	if logger == nil {
		logger = logrus.New()
	}
	return &Engine{rules: rules, executor: executor, logger: logger}
}

// EvaluateAndExecute runs one evaluation pass: active rules matching the
// trigger are applied in creation order, and for each match the rule's
// actions run in declared order. Action failures are logged and never abort
// the pass. The only error returned is a failed rule query; callers should
// log it and carry on, since their own write has already committed.
//
// Actions write through the record repository and do not re-enter the engine,
// so a pass never cascades into further passes.
func (e *Engine) EvaluateAndExecute(ctx context.Context, orgID string, module models.Module, event models.Event, rec *Record) error {
	if rec == nil {
		return nil
	}
	rules, err := e.rules.ListActive(ctx, orgID, module, event)
	if err != nil {
		return fmt.Errorf("automation: list rules: %w", err)
	}
	if len(rules) == 0 {
		return nil
	}

	metrics.IncEvaluationPass()
	metrics.AddRulesEvaluated(len(rules))

	for i := range rules {
		rule := &rules[i]
		if !MatchesConditions(rec, rule.Conditions) {
			continue
		}
		metrics.IncRuleMatched()
		e.logger.WithFields(logrus.Fields{
			"rule_id":   rule.ID,
			"rule_name": rule.Name,
			"module":    module,
			"event":     event,
			"record_id": rec.ID,
		}).Info("automation rule matched")

		metrics.AddActionsRun(len(rule.Actions))
		for _, fail := range e.executor.ExecuteAll(ctx, orgID, module, rec, rule) {
			metrics.IncActionFailure()
			e.logger.WithFields(logrus.Fields{
				"rule_id":   fail.RuleID,
				"action":    fail.ActionType,
				"index":     fail.Index,
				"module":    module,
				"record_id": rec.ID,
			}).Warnf("automation action failed: %v", fail.Err)
		}
	}
	return nil
}
