package metrics

import "sync/atomic"

// automationStats holds counters for the rule engine. Kept simple and
// thread-safe for use from request paths and exposition.
type automationStats struct {
	passes         uint64
	rulesEvaluated uint64
	rulesMatched   uint64
	actionsRun     uint64
	actionFailures uint64
}

var auto automationStats

func IncEvaluationPass()      { atomic.AddUint64(&auto.passes, 1) }
func AddRulesEvaluated(n int) { atomic.AddUint64(&auto.rulesEvaluated, uint64(n)) }
func IncRuleMatched()         { atomic.AddUint64(&auto.rulesMatched, 1) }
func AddActionsRun(n int)     { atomic.AddUint64(&auto.actionsRun, uint64(n)) }
func IncActionFailure()       { atomic.AddUint64(&auto.actionFailures, 1) }

// AutomationSnapshot returns a copy of the current counters.
func AutomationSnapshot() map[string]uint64 {
	return map[string]uint64{
		"evaluation_passes": atomic.LoadUint64(&auto.passes),
		"rules_evaluated":   atomic.LoadUint64(&auto.rulesEvaluated),
		"rules_matched":     atomic.LoadUint64(&auto.rulesMatched),
		"actions_run":       atomic.LoadUint64(&auto.actionsRun),
		"action_failures":   atomic.LoadUint64(&auto.actionFailures),
	}
}
