package rules

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/agentrails/agent-wallet/models"
	"github.com/google/uuid"
)

// spendWindow identifies one of the rolling limit windows
type spendWindow string

const (
	windowDaily   spendWindow = "daily"
	windowWeekly  spendWindow = "weekly"
	windowMonthly spendWindow = "monthly"
)

// windowStart returns the start of the window containing now. The day
// boundary is hour 0 in now's location; weeks start on Sunday; months on
// day 1.
func windowStart(now time.Time, window spendWindow) time.Time {
	switch window {
	case windowWeekly:
		start := now.AddDate(0, 0, -int(now.Weekday()))
		return time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, now.Location())
	case windowMonthly:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	default:
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	}
}

func (e *Engine) checkPerTransactionLimit(rule *models.SpendRule, req TransactionRequest) RuleOutcome {
	var params models.LimitParams
	if err := json.Unmarshal(rule.Parameters, &params); err != nil || params.Limit <= 0 {
		return e.misconfigured(rule, limitParamsError(err, params.Limit))
	}

	passed := req.Amount <= params.Limit
	reason := fmt.Sprintf("amount %.2f within per-transaction limit of %.2f", req.Amount, params.Limit)
	if !passed {
		reason = fmt.Sprintf("amount %.2f exceeds per-transaction limit of %.2f", req.Amount, params.Limit)
	}

	return RuleOutcome{
		Passed: passed,
		Reason: reason,
		Details: map[string]interface{}{
			"amount": req.Amount,
			"limit":  params.Limit,
		},
	}
}

// checkWindowLimit evaluates the daily, weekly and monthly limit rules.
// Prior spend counts COMPLETED transactions only; the limit is inclusive
// (projected total equal to the limit passes).
func (e *Engine) checkWindowLimit(ctx context.Context, rule *models.SpendRule, walletID uuid.UUID, req TransactionRequest, window spendWindow) (RuleOutcome, error) {
	var params models.LimitParams
	if err := json.Unmarshal(rule.Parameters, &params); err != nil || params.Limit <= 0 {
		return e.misconfigured(rule, limitParamsError(err, params.Limit)), nil
	}

	since := windowStart(e.now(), window)
	spent, err := e.spend.SumCompletedSince(ctx, walletID, since)
	if err != nil {
		return RuleOutcome{}, fmt.Errorf("failed to query %s spend: %w", window, err)
	}

	projected := spent + req.Amount
	passed := projected <= params.Limit
	reason := fmt.Sprintf("%s spend %.2f within limit of %.2f", window, projected, params.Limit)
	if !passed {
		reason = fmt.Sprintf("%s spend would be %.2f, exceeds limit of %.2f", window, projected, params.Limit)
	}

	return RuleOutcome{
		Passed: passed,
		Reason: reason,
		Details: map[string]interface{}{
			"window":          string(window),
			"window_start":    since,
			"spent":           spent,
			"amount":          req.Amount,
			"projected_total": projected,
			"limit":           params.Limit,
		},
	}, nil
}

func (e *Engine) checkCategoryWhitelist(rule *models.SpendRule, req TransactionRequest) RuleOutcome {
	var params models.CategoryListParams
	if err := json.Unmarshal(rule.Parameters, &params); err != nil {
		return e.misconfigured(rule, err)
	}

	// An absent category always passes; only explicitly tagged spend is
	// checked against the list.
	passed := req.Category == "" || contains(params.Categories, req.Category)
	reason := fmt.Sprintf("category %q is allowed", orNone(req.Category))
	if !passed {
		reason = fmt.Sprintf("category %q not in whitelist: %v", req.Category, params.Categories)
	}

	return RuleOutcome{
		Passed: passed,
		Reason: reason,
		Details: map[string]interface{}{
			"category": req.Category,
			"allowed":  params.Categories,
		},
	}
}

func (e *Engine) checkCategoryBlacklist(rule *models.SpendRule, req TransactionRequest) RuleOutcome {
	var params models.CategoryListParams
	if err := json.Unmarshal(rule.Parameters, &params); err != nil {
		return e.misconfigured(rule, err)
	}

	passed := req.Category == "" || !contains(params.Categories, req.Category)
	reason := fmt.Sprintf("category %q is not blocked", orNone(req.Category))
	if !passed {
		reason = fmt.Sprintf("category %q is blacklisted", req.Category)
	}

	return RuleOutcome{
		Passed: passed,
		Reason: reason,
		Details: map[string]interface{}{
			"category": req.Category,
			"blocked":  params.Categories,
		},
	}
}

func (e *Engine) checkRecipientWhitelist(rule *models.SpendRule, req TransactionRequest) RuleOutcome {
	var params models.RecipientListParams
	if err := json.Unmarshal(rule.Parameters, &params); err != nil {
		return e.misconfigured(rule, err)
	}

	passed := req.RecipientID == "" || contains(params.Recipients, req.RecipientID)
	reason := "recipient is allowed"
	if !passed {
		reason = "recipient not in whitelist"
	}

	return RuleOutcome{
		Passed: passed,
		Reason: reason,
		Details: map[string]interface{}{
			"recipient_id":  req.RecipientID,
			"allowed_count": len(params.Recipients),
		},
	}
}

func (e *Engine) checkRecipientBlacklist(rule *models.SpendRule, req TransactionRequest) RuleOutcome {
	var params models.RecipientListParams
	if err := json.Unmarshal(rule.Parameters, &params); err != nil {
		return e.misconfigured(rule, err)
	}

	passed := req.RecipientID == "" || !contains(params.Recipients, req.RecipientID)
	reason := "recipient is not blocked"
	if !passed {
		reason = "recipient is blacklisted"
	}

	return RuleOutcome{
		Passed: passed,
		Reason: reason,
		Details: map[string]interface{}{
			"recipient_id": req.RecipientID,
		},
	}
}

// checkTimeWindow passes when the current hour falls in the half-open
// range [StartHour, EndHour) of the configured timezone (UTC when unset).
// It blocks or passes, never flags.
func (e *Engine) checkTimeWindow(rule *models.SpendRule) RuleOutcome {
	var params models.TimeWindowParams
	if err := json.Unmarshal(rule.Parameters, &params); err != nil {
		return e.misconfigured(rule, err)
	}

	loc := time.UTC
	if params.Timezone != "" {
		parsed, err := time.LoadLocation(params.Timezone)
		if err != nil {
			return e.misconfigured(rule, fmt.Errorf("unknown timezone %q", params.Timezone))
		}
		loc = parsed
	}

	currentHour := e.now().In(loc).Hour()
	passed := currentHour >= params.StartHour && currentHour < params.EndHour
	reason := fmt.Sprintf("current time is within allowed window (%02d:00 - %02d:00 %s)", params.StartHour, params.EndHour, loc)
	if !passed {
		reason = fmt.Sprintf("current time is outside allowed window (%02d:00 - %02d:00 %s)", params.StartHour, params.EndHour, loc)
	}

	return RuleOutcome{
		Passed: passed,
		Reason: reason,
		Details: map[string]interface{}{
			"current_hour": currentHour,
			"start_hour":   params.StartHour,
			"end_hour":     params.EndHour,
			"timezone":     loc.String(),
		},
	}
}

// checkRequiresApproval never blocks; its whole purpose is flagging
// transactions over the threshold for human review.
func (e *Engine) checkRequiresApproval(rule *models.SpendRule, req TransactionRequest) RuleOutcome {
	var params models.ApprovalThresholdParams
	if err := json.Unmarshal(rule.Parameters, &params); err != nil {
		return e.misconfigured(rule, err)
	}

	flagged := req.Amount > params.Threshold
	reason := fmt.Sprintf("amount %.2f below approval threshold of %.2f", req.Amount, params.Threshold)
	if flagged {
		reason = fmt.Sprintf("amount %.2f exceeds approval threshold of %.2f - flagged for review", req.Amount, params.Threshold)
	}

	return RuleOutcome{
		Passed:           true,
		RequiresApproval: flagged,
		Reason:           reason,
		Details: map[string]interface{}{
			"amount":            req.Amount,
			"threshold":         params.Threshold,
			"requires_approval": flagged,
		},
	}
}

func limitParamsError(err error, limit float64) error {
	if err != nil {
		return err
	}
	return fmt.Errorf("limit must be positive, got %v", limit)
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

func orNone(value string) string {
	if value == "" {
		return "none"
	}
	return value
}
