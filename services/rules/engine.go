package rules

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/agentrails/agent-wallet/models"
	"github.com/agentrails/agent-wallet/observability"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TransactionRequest is the candidate spend being evaluated. It is never
// mutated; empty Category/RecipientID mean the tag is absent.
type TransactionRequest struct {
	Amount      float64
	Category    string
	RecipientID string
}

// RuleOutcome is the per-rule evaluation result. Passed and
// RequiresApproval are independent: a rule can pass and still flag the
// transaction for human review.
type RuleOutcome struct {
	RuleID           uuid.UUID              `json:"rule_id"`
	RuleType         models.RuleType        `json:"rule_type"`
	Passed           bool                   `json:"passed"`
	RequiresApproval bool                   `json:"requires_approval"`
	Reason           string                 `json:"reason"`
	Details          map[string]interface{} `json:"details,omitempty"`
}

// EvaluationResult is the engine's output for one transaction.
// Approved is the AND over all outcomes' Passed; RequiresApproval is the
// OR over all outcomes' RequiresApproval. Results preserve evaluation
// order (priority descending, rule ID ascending on ties).
type EvaluationResult struct {
	Approved         bool          `json:"approved"`
	RequiresApproval bool          `json:"requires_approval"`
	Results          []RuleOutcome `json:"results"`
	EvaluatedAt      time.Time     `json:"evaluated_at"`
}

// RuleSource provides the active rule set for a wallet
type RuleSource interface {
	ListActiveByWallet(ctx context.Context, walletID uuid.UUID) ([]*models.SpendRule, error)
}

// SpendSource provides historical completed spend for the limit-window rules
type SpendSource interface {
	SumCompletedSince(ctx context.Context, walletID uuid.UUID, since time.Time) (float64, error)
}

// Engine evaluates the configured spend rules of a wallet against a
// candidate transaction. It is stateless per call and safe for concurrent
// use; it never mutates rules and never persists anything itself.
type Engine struct {
	rules   RuleSource
	spend   SpendSource
	metrics *observability.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewEngine creates a new Engine instance with its collaborators injected
func NewEngine(rules RuleSource, spend SpendSource, metrics *observability.Metrics, logger *zap.Logger) *Engine {
	return &Engine{
		rules:   rules,
		spend:   spend,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// Evaluate runs every active rule for the wallet against the request and
// aggregates the outcomes into a single decision. All rules run; there is
// no short-circuit on the first failure because callers need the complete
// explanation set for audit and display. It returns an error only when the
// rule store or spend-history source is unreachable; rule-level problems
// (unknown type, malformed parameters) degrade to a passing outcome with
// an explanatory reason.
func (e *Engine) Evaluate(ctx context.Context, walletID uuid.UUID, req TransactionRequest) (*EvaluationResult, error) {
	start := e.now()

	ruleSet, err := e.rules.ListActiveByWallet(ctx, walletID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch spend rules: %w", err)
	}

	// The store is expected to return rules ordered already; sorting here
	// keeps the output order deterministic regardless of the source.
	sort.SliceStable(ruleSet, func(i, j int) bool {
		if ruleSet[i].Priority != ruleSet[j].Priority {
			return ruleSet[i].Priority > ruleSet[j].Priority
		}
		return ruleSet[i].ID.String() < ruleSet[j].ID.String()
	})

	outcomes := make([]RuleOutcome, 0, len(ruleSet))
	approved := true
	requiresApproval := false

	for _, rule := range ruleSet {
		outcome, err := e.evaluateRule(ctx, rule, walletID, req)
		if err != nil {
			return nil, err
		}

		outcome.RuleID = rule.ID
		outcome.RuleType = rule.RuleType
		outcomes = append(outcomes, outcome)

		if !outcome.Passed {
			approved = false
		}
		if outcome.RequiresApproval {
			requiresApproval = true
		}
		e.recordOutcome(rule.RuleType, outcome)
	}

	result := &EvaluationResult{
		Approved:         approved,
		RequiresApproval: requiresApproval,
		Results:          outcomes,
		EvaluatedAt:      e.now(),
	}

	e.recordEvaluation(result, e.now().Sub(start))
	e.logger.Debug("transaction evaluated",
		zap.String("wallet_id", walletID.String()),
		zap.Float64("amount", req.Amount),
		zap.Bool("approved", result.Approved),
		zap.Bool("requires_approval", result.RequiresApproval),
		zap.Int("rules_evaluated", len(outcomes)))

	return result, nil
}

// evaluateRule dispatches a single rule to its evaluator by type. The
// returned error is reserved for infrastructure failures (spend-history
// source unreachable); everything else is expressed in the outcome.
func (e *Engine) evaluateRule(ctx context.Context, rule *models.SpendRule, walletID uuid.UUID, req TransactionRequest) (RuleOutcome, error) {
	switch rule.RuleType {
	case models.RuleTypePerTransactionLimit:
		return e.checkPerTransactionLimit(rule, req), nil

	case models.RuleTypeDailyLimit:
		return e.checkWindowLimit(ctx, rule, walletID, req, windowDaily)

	case models.RuleTypeWeeklyLimit:
		return e.checkWindowLimit(ctx, rule, walletID, req, windowWeekly)

	case models.RuleTypeMonthlyLimit:
		return e.checkWindowLimit(ctx, rule, walletID, req, windowMonthly)

	case models.RuleTypeCategoryWhitelist:
		return e.checkCategoryWhitelist(rule, req), nil

	case models.RuleTypeCategoryBlacklist:
		return e.checkCategoryBlacklist(rule, req), nil

	case models.RuleTypeRecipientWhitelist:
		return e.checkRecipientWhitelist(rule, req), nil

	case models.RuleTypeRecipientBlacklist:
		return e.checkRecipientBlacklist(rule, req), nil

	case models.RuleTypeTimeWindow:
		return e.checkTimeWindow(rule), nil

	case models.RuleTypeRequiresApproval:
		return e.checkRequiresApproval(rule, req), nil

	default:
		// Unknown rule types fail open so a future rule type rolled out
		// elsewhere cannot block all spend on older deployments.
		e.logger.Warn("unknown rule type, skipping",
			zap.String("rule_id", rule.ID.String()),
			zap.String("rule_type", string(rule.RuleType)))
		return RuleOutcome{
			Passed: true,
			Reason: fmt.Sprintf("unknown rule type %q - skipped", rule.RuleType),
		}, nil
	}
}

// misconfigured builds the fail-open outcome for a known rule type whose
// parameters cannot be decoded
func (e *Engine) misconfigured(rule *models.SpendRule, err error) RuleOutcome {
	e.logger.Warn("malformed rule parameters, skipping",
		zap.String("rule_id", rule.ID.String()),
		zap.String("rule_type", string(rule.RuleType)),
		zap.Error(err))
	return RuleOutcome{
		Passed: true,
		Reason: fmt.Sprintf("malformed parameters for %s rule - skipped (%v)", rule.RuleType, err),
	}
}

func (e *Engine) recordOutcome(ruleType models.RuleType, outcome RuleOutcome) {
	if e.metrics == nil {
		return
	}
	result := "passed"
	switch {
	case !outcome.Passed:
		result = "failed"
	case outcome.RequiresApproval:
		result = "flagged"
	}
	e.metrics.RuleOutcomesTotal.WithLabelValues(string(ruleType), result).Inc()
}

func (e *Engine) recordEvaluation(result *EvaluationResult, elapsed time.Duration) {
	if e.metrics == nil {
		return
	}
	decision := "approved"
	switch {
	case !result.Approved:
		decision = "rejected"
	case result.RequiresApproval:
		decision = "pending_approval"
	}
	e.metrics.EvaluationsTotal.WithLabelValues(decision).Inc()
	e.metrics.EvaluationDuration.Observe(elapsed.Seconds())
}
