package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RuleType represents the different kinds of spend guardrails
type RuleType string

const (
	RuleTypePerTransactionLimit RuleType = "PER_TRANSACTION_LIMIT"
	RuleTypeDailyLimit          RuleType = "DAILY_LIMIT"
	RuleTypeWeeklyLimit         RuleType = "WEEKLY_LIMIT"
	RuleTypeMonthlyLimit        RuleType = "MONTHLY_LIMIT"
	RuleTypeCategoryWhitelist   RuleType = "CATEGORY_WHITELIST"
	RuleTypeCategoryBlacklist   RuleType = "CATEGORY_BLACKLIST"
	RuleTypeRecipientWhitelist  RuleType = "RECIPIENT_WHITELIST"
	RuleTypeRecipientBlacklist  RuleType = "RECIPIENT_BLACKLIST"
	RuleTypeTimeWindow          RuleType = "TIME_WINDOW"
	RuleTypeRequiresApproval    RuleType = "REQUIRES_APPROVAL"
)

// KnownRuleTypes lists every rule type the engine understands.
// Unrecognized types are still accepted by the engine (fail-open) but
// rejected at creation time.
var KnownRuleTypes = []RuleType{
	RuleTypePerTransactionLimit,
	RuleTypeDailyLimit,
	RuleTypeWeeklyLimit,
	RuleTypeMonthlyLimit,
	RuleTypeCategoryWhitelist,
	RuleTypeCategoryBlacklist,
	RuleTypeRecipientWhitelist,
	RuleTypeRecipientBlacklist,
	RuleTypeTimeWindow,
	RuleTypeRequiresApproval,
}

// SpendRule represents a configured guardrail evaluated against every
// candidate transaction on a wallet
type SpendRule struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	WalletID   uuid.UUID       `json:"wallet_id" db:"wallet_id"`
	RuleType   RuleType        `json:"rule_type" db:"rule_type"`
	Parameters json.RawMessage `json:"parameters" db:"parameters"` // JSONB, shape depends on RuleType
	Priority   int             `json:"priority" db:"priority"`
	Active     bool            `json:"active" db:"active"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the SpendRule model
func (SpendRule) TableName() string {
	return "spend_rules"
}

// NewSpendRule creates a new active SpendRule instance
func NewSpendRule(walletID uuid.UUID, ruleType RuleType, parameters json.RawMessage, priority int) *SpendRule {
	now := time.Now()
	return &SpendRule{
		ID:         uuid.New(),
		WalletID:   walletID,
		RuleType:   ruleType,
		Parameters: parameters,
		Priority:   priority,
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// LimitParams configures the per-transaction, daily, weekly and monthly
// limit rule types
type LimitParams struct {
	Limit float64 `json:"limit"`
}

// CategoryListParams configures the category whitelist and blacklist rule types
type CategoryListParams struct {
	Categories []string `json:"categories"`
}

// RecipientListParams configures the recipient whitelist and blacklist rule types
type RecipientListParams struct {
	Recipients []string `json:"recipients"`
}

// TimeWindowParams configures the time window rule type. Hours are in the
// half-open range [StartHour, EndHour). Timezone is an IANA zone name and
// defaults to UTC when empty.
type TimeWindowParams struct {
	StartHour int    `json:"start_hour"`
	EndHour   int    `json:"end_hour"`
	Timezone  string `json:"timezone,omitempty"`
}

// ApprovalThresholdParams configures the requires-approval rule type
type ApprovalThresholdParams struct {
	Threshold float64 `json:"threshold"`
}

// ValidateRuleParameters checks that a parameter blob is well formed for the
// given rule type. It is enforced at rule creation/update time so the engine
// can normally assume well-typed parameters; the engine still degrades
// fail-open on malformed data as a second line of defense.
func ValidateRuleParameters(ruleType RuleType, parameters json.RawMessage) error {
	switch ruleType {
	case RuleTypePerTransactionLimit, RuleTypeDailyLimit, RuleTypeWeeklyLimit, RuleTypeMonthlyLimit:
		var p LimitParams
		if err := strictUnmarshal(parameters, &p); err != nil {
			return fmt.Errorf("invalid limit parameters: %w", err)
		}
		if p.Limit <= 0 {
			return fmt.Errorf("limit must be positive, got %v", p.Limit)
		}

	case RuleTypeCategoryWhitelist, RuleTypeCategoryBlacklist:
		var p CategoryListParams
		if err := strictUnmarshal(parameters, &p); err != nil {
			return fmt.Errorf("invalid category list parameters: %w", err)
		}
		if len(p.Categories) == 0 {
			return fmt.Errorf("categories must not be empty")
		}

	case RuleTypeRecipientWhitelist, RuleTypeRecipientBlacklist:
		var p RecipientListParams
		if err := strictUnmarshal(parameters, &p); err != nil {
			return fmt.Errorf("invalid recipient list parameters: %w", err)
		}
		if len(p.Recipients) == 0 {
			return fmt.Errorf("recipients must not be empty")
		}

	case RuleTypeTimeWindow:
		var p TimeWindowParams
		if err := strictUnmarshal(parameters, &p); err != nil {
			return fmt.Errorf("invalid time window parameters: %w", err)
		}
		if p.StartHour < 0 || p.StartHour > 23 {
			return fmt.Errorf("start_hour must be in [0,23], got %d", p.StartHour)
		}
		if p.EndHour < 0 || p.EndHour > 24 {
			return fmt.Errorf("end_hour must be in [0,24], got %d", p.EndHour)
		}
		if p.Timezone != "" {
			if _, err := time.LoadLocation(p.Timezone); err != nil {
				return fmt.Errorf("unknown timezone %q: %w", p.Timezone, err)
			}
		}

	case RuleTypeRequiresApproval:
		var p ApprovalThresholdParams
		if err := strictUnmarshal(parameters, &p); err != nil {
			return fmt.Errorf("invalid approval threshold parameters: %w", err)
		}
		if p.Threshold < 0 {
			return fmt.Errorf("threshold must not be negative, got %v", p.Threshold)
		}

	default:
		return fmt.Errorf("unknown rule type: %s", ruleType)
	}

	return nil
}

// strictUnmarshal decodes JSON rejecting null and non-object payloads
func strictUnmarshal(data json.RawMessage, v interface{}) error {
	if len(data) == 0 {
		return fmt.Errorf("parameters are required")
	}
	return json.Unmarshal(data, v)
}
