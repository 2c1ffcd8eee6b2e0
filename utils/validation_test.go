package utils

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type createRuleDTO struct {
	RuleType string `validate:"required"`
	Priority int    `validate:"gte=0"`
}

func TestValidateStruct(t *testing.T) {
	t.Run("valid struct", func(t *testing.T) {
		err := ValidateStruct(createRuleDTO{RuleType: "DAILY_LIMIT", Priority: 10})
		assert.NoError(t, err)
	})

	t.Run("missing required field", func(t *testing.T) {
		err := ValidateStruct(createRuleDTO{Priority: 10})
		require.Error(t, err)
		assert.True(t, IsValidationError(err))

		fields := GetValidationFields(err)
		assert.Contains(t, fields, "RuleType")
		assert.Equal(t, "RuleType is required", fields["RuleType"])
	})

	t.Run("negative priority", func(t *testing.T) {
		err := ValidateStruct(createRuleDTO{RuleType: "DAILY_LIMIT", Priority: -1})
		require.Error(t, err)

		fields := GetValidationFields(err)
		assert.Contains(t, fields, "Priority")
	})
}

func TestIsValidationError(t *testing.T) {
	assert.False(t, IsValidationError(nil))
	assert.False(t, IsValidationError(assert.AnError))
	assert.True(t, IsValidationError(&ValidationError{Message: "Validation failed"}))
}

func TestValidateUUID(t *testing.T) {
	assert.NoError(t, ValidateUUID(uuid.New().String()))
	assert.Error(t, ValidateUUID("not-a-uuid"))
	assert.Error(t, ValidateUUID(""))
}
