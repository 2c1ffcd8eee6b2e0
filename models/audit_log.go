package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of action being audited
type AuditAction string

const (
	AuditActionTransactionEvaluated AuditAction = "transaction_evaluated"
	AuditActionTransactionApproved  AuditAction = "transaction_approved"
	AuditActionTransactionRejected  AuditAction = "transaction_rejected"
	AuditActionRuleCreated          AuditAction = "rule_created"
	AuditActionRuleUpdated          AuditAction = "rule_updated"
	AuditActionRuleDeleted          AuditAction = "rule_deleted"
	AuditActionWalletCreated        AuditAction = "wallet_created"
	AuditActionAgentCreated         AuditAction = "agent_created"
)

// AuditLog represents an audit trail entry. For transaction evaluations
// Details carries the full rule-by-rule evaluation result so every decision
// stays explainable after the fact.
type AuditLog struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	WalletID     uuid.UUID       `json:"wallet_id" db:"wallet_id"`
	AgentID      *uuid.UUID      `json:"agent_id,omitempty" db:"agent_id"`
	Action       AuditAction     `json:"action" db:"action"`
	ResourceType string          `json:"resource_type" db:"resource_type"` // transaction, rule, wallet, agent
	ResourceID   *uuid.UUID      `json:"resource_id,omitempty" db:"resource_id"`
	Details      json.RawMessage `json:"details" db:"details"` // JSONB for flexible metadata
	RequestID    string          `json:"request_id" db:"request_id"`
	IPAddress    string          `json:"ip_address" db:"ip_address"`
	Timestamp    time.Time       `json:"timestamp" db:"timestamp"`
}

// TableName returns the table name for the AuditLog model
func (AuditLog) TableName() string {
	return "audit_logs"
}

// NewAuditLog creates a new AuditLog instance
func NewAuditLog(walletID uuid.UUID, action AuditAction, resourceType string) *AuditLog {
	return &AuditLog{
		ID:           uuid.New(),
		WalletID:     walletID,
		Action:       action,
		ResourceType: resourceType,
		Timestamp:    time.Now(),
	}
}

// WithAgent sets the agent ID
func (a *AuditLog) WithAgent(agentID uuid.UUID) *AuditLog {
	a.AgentID = &agentID
	return a
}

// WithResource sets the resource ID
func (a *AuditLog) WithResource(resourceID uuid.UUID) *AuditLog {
	a.ResourceID = &resourceID
	return a
}

// WithDetails sets the structured details payload
func (a *AuditLog) WithDetails(details interface{}) *AuditLog {
	if raw, err := json.Marshal(details); err == nil {
		a.Details = raw
	}
	return a
}

// WithRequest sets request metadata
func (a *AuditLog) WithRequest(requestID, ipAddress string) *AuditLog {
	a.RequestID = requestID
	a.IPAddress = ipAddress
	return a
}
