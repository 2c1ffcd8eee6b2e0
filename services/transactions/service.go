package transactions

import (
	"context"
	"fmt"

	"github.com/agentrails/agent-wallet/models"
	"github.com/agentrails/agent-wallet/repositories"
	"github.com/agentrails/agent-wallet/services"
	"github.com/agentrails/agent-wallet/services/audit"
	"github.com/agentrails/agent-wallet/services/rules"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateRequest describes a spend attempt submitted by an agent
type CreateRequest struct {
	WalletID    uuid.UUID
	AgentID     *uuid.UUID
	Amount      float64
	Category    string
	RecipientID string
	Description string
	RequestID   string
	IPAddress   string
}

// CreateResult pairs the persisted transaction with the policy decision
// that produced its status
type CreateResult struct {
	Transaction *models.Transaction
	Evaluation  *rules.EvaluationResult
}

// PolicyEngine is the slice of the rules engine this service depends on
type PolicyEngine interface {
	Evaluate(ctx context.Context, walletID uuid.UUID, req rules.TransactionRequest) (*rules.EvaluationResult, error)
}

// Service orchestrates the transaction pipeline: policy evaluation,
// persistence, approval workflow and the audit trail. The engine itself
// stays side-effect free; everything that happens to a decision happens
// here.
type Service struct {
	engine       PolicyEngine
	wallets      repositories.WalletRepository
	transactions repositories.TransactionRepository
	auditor      *audit.Service
	logger       *zap.Logger
}

// NewService creates a new transaction Service instance
func NewService(
	engine PolicyEngine,
	wallets repositories.WalletRepository,
	transactions repositories.TransactionRepository,
	auditor *audit.Service,
	logger *zap.Logger,
) *Service {
	return &Service{
		engine:       engine,
		wallets:      wallets,
		transactions: transactions,
		auditor:      auditor,
		logger:       logger,
	}
}

// Create evaluates a spend attempt against the wallet's rules and persists
// the outcome. Status mapping: rejected when any rule fails; pending
// approval when every rule passes but at least one flags for review;
// completed otherwise. The full evaluation is recorded on the audit trail
// either way.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	if req.Amount < 0 {
		return nil, services.ErrNegativeAmount
	}

	wallet, err := s.wallets.GetByID(ctx, req.WalletID)
	if err != nil {
		return nil, services.NewDomainError(services.ErrorTypeNotFound, "wallet not found", err)
	}
	if !wallet.CanSpend() {
		return nil, services.ErrWalletNotSpendable.WithDetail("status", string(wallet.Status))
	}

	evaluation, err := s.engine.Evaluate(ctx, req.WalletID, rules.TransactionRequest{
		Amount:      req.Amount,
		Category:    req.Category,
		RecipientID: req.RecipientID,
	})
	if err != nil {
		return nil, fmt.Errorf("policy evaluation failed: %w", err)
	}

	tx := models.NewTransaction(req.WalletID, req.Amount)
	tx.Description = req.Description
	if req.AgentID != nil {
		tx.WithAgent(*req.AgentID)
	}
	if req.Category != "" {
		tx.WithCategory(req.Category)
	}
	if req.RecipientID != "" {
		tx.WithRecipient(req.RecipientID)
	}
	tx.Status = statusFor(evaluation)
	if tx.Status == models.TransactionStatusCompleted {
		completedAt := tx.CreatedAt
		tx.CompletedAt = &completedAt
	}

	if err := s.transactions.Create(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to persist transaction: %w", err)
	}

	s.recordEvaluation(tx, evaluation, req)

	s.logger.Info("transaction processed",
		zap.String("transaction_id", tx.ID.String()),
		zap.String("wallet_id", req.WalletID.String()),
		zap.Float64("amount", req.Amount),
		zap.String("status", string(tx.Status)))

	return &CreateResult{Transaction: tx, Evaluation: evaluation}, nil
}

// Approve completes a transaction that was escalated for human review.
// Only PENDING_APPROVAL transactions may be approved; the reviewer's
// decision is final and no re-evaluation happens.
func (s *Service) Approve(ctx context.Context, transactionID uuid.UUID, reviewer string) (*models.Transaction, error) {
	return s.resolve(ctx, transactionID, reviewer, models.TransactionStatusCompleted, models.AuditActionTransactionApproved)
}

// Reject declines a transaction that was escalated for human review
func (s *Service) Reject(ctx context.Context, transactionID uuid.UUID, reviewer string) (*models.Transaction, error) {
	return s.resolve(ctx, transactionID, reviewer, models.TransactionStatusRejected, models.AuditActionTransactionRejected)
}

// Get retrieves a transaction by ID
func (s *Service) Get(ctx context.Context, transactionID uuid.UUID) (*models.Transaction, error) {
	tx, err := s.transactions.GetByID(ctx, transactionID)
	if err != nil {
		return nil, services.NewDomainError(services.ErrorTypeNotFound, "transaction not found", err)
	}
	return tx, nil
}

// List retrieves transactions for a wallet, optionally filtered by status
func (s *Service) List(ctx context.Context, walletID uuid.UUID, status models.TransactionStatus, limit, offset int) ([]*models.Transaction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if status != "" {
		return s.transactions.GetByStatus(ctx, walletID, status, limit, offset)
	}
	return s.transactions.GetByWalletID(ctx, walletID, limit, offset)
}

// resolve applies a reviewer decision to a pending transaction
func (s *Service) resolve(ctx context.Context, transactionID uuid.UUID, reviewer string, status models.TransactionStatus, action models.AuditAction) (*models.Transaction, error) {
	tx, err := s.transactions.GetByID(ctx, transactionID)
	if err != nil {
		return nil, services.NewDomainError(services.ErrorTypeNotFound, "transaction not found", err)
	}

	if tx.IsTerminal() {
		return nil, services.ErrAlreadyProcessed.WithDetail("status", string(tx.Status))
	}
	if tx.Status != models.TransactionStatusPendingApproval {
		return nil, services.ErrNotPendingApproval.WithDetail("status", string(tx.Status))
	}

	if err := s.transactions.UpdateStatus(ctx, transactionID, status); err != nil {
		return nil, fmt.Errorf("failed to update transaction status: %w", err)
	}
	tx.Status = status

	if s.auditor != nil {
		log := models.NewAuditLog(tx.WalletID, action, "transaction").
			WithResource(tx.ID).
			WithDetails(map[string]interface{}{
				"reviewer": reviewer,
				"amount":   tx.Amount,
			})
		if tx.AgentID != nil {
			log.WithAgent(*tx.AgentID)
		}
		s.auditor.Record(log)
	}

	s.logger.Info("pending transaction resolved",
		zap.String("transaction_id", tx.ID.String()),
		zap.String("status", string(status)),
		zap.String("reviewer", reviewer))

	return tx, nil
}

// recordEvaluation writes the full decision to the audit trail
func (s *Service) recordEvaluation(tx *models.Transaction, evaluation *rules.EvaluationResult, req CreateRequest) {
	if s.auditor == nil {
		return
	}

	log := models.NewAuditLog(tx.WalletID, models.AuditActionTransactionEvaluated, "transaction").
		WithResource(tx.ID).
		WithDetails(map[string]interface{}{
			"evaluation": evaluation,
			"status":     tx.Status,
			"amount":     tx.Amount,
		}).
		WithRequest(req.RequestID, req.IPAddress)
	if req.AgentID != nil {
		log.WithAgent(*req.AgentID)
	}
	s.auditor.Record(log)
}

// statusFor maps a policy decision to the transaction status. Approval is
// withheld whenever the evaluation rejects or flags the transaction.
func statusFor(evaluation *rules.EvaluationResult) models.TransactionStatus {
	switch {
	case !evaluation.Approved:
		return models.TransactionStatusRejected
	case evaluation.RequiresApproval:
		return models.TransactionStatusPendingApproval
	default:
		return models.TransactionStatusCompleted
	}
}
