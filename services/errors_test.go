package services

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Error(t *testing.T) {
	err := NewDomainError(ErrorTypeNotFound, "wallet not found", nil)
	assert.Equal(t, "not_found: wallet not found", err.Error())

	wrapped := NewDomainError(ErrorTypeInternal, "query failed", errors.New("connection reset"))
	assert.Contains(t, wrapped.Error(), "connection reset")
}

func TestDomainError_Unwrap(t *testing.T) {
	cause := errors.New("no rows")
	err := NewDomainError(ErrorTypeNotFound, "wallet not found", cause)

	assert.ErrorIs(t, err, cause)
}

func TestDomainError_Is(t *testing.T) {
	err := NewDomainError(ErrorTypeConflict, "transaction already processed", nil)
	assert.ErrorIs(t, err, ErrAlreadyProcessed)
	assert.NotErrorIs(t, err, ErrWalletNotFound)

	// Predicates see through wrapping
	wrapped := fmt.Errorf("resolving: %w", ErrAlreadyProcessed)
	assert.True(t, IsConflictError(wrapped))
	assert.False(t, IsNotFoundError(wrapped))
}

func TestDomainError_WithDetail(t *testing.T) {
	err := NewDomainError(ErrorTypeValidation, "invalid input", nil).
		WithDetail("field", "amount").
		WithDetail("value", -5)

	assert.Equal(t, "amount", err.Details["field"])
	assert.Equal(t, -5, err.Details["value"])
	assert.Equal(t, err.Details, GetErrorDetails(err))
}

func TestDomainError_WithDetailCopies(t *testing.T) {
	first := ErrWalletNotSpendable.WithDetail("status", "FROZEN")
	second := ErrWalletNotSpendable.WithDetail("status", "CLOSED")

	// Each decorated error keeps its own details
	assert.Equal(t, "FROZEN", first.Details["status"])
	assert.Equal(t, "CLOSED", second.Details["status"])

	// The shared error variable itself stays untouched
	assert.Empty(t, ErrWalletNotSpendable.Details)

	// Copies still match the original for errors.Is
	assert.ErrorIs(t, first, ErrWalletNotSpendable)
}

func TestDomainError_WithDetailConcurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			err := ErrAlreadyProcessed.WithDetail("status", n)
			assert.Equal(t, n, err.Details["status"])
		}(i)
	}
	wg.Wait()
}

func TestGetErrorType(t *testing.T) {
	assert.Equal(t, ErrorTypeForbidden, GetErrorType(ErrWalletNotSpendable))
	assert.Equal(t, ErrorTypeInternal, GetErrorType(errors.New("plain error")))
}
