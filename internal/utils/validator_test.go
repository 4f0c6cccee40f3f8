// internal/utils/validator_test.go
package utils

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type passwordFixture struct {
	Password string `validate:"strong_password"`
}

type usernameFixture struct {
	Username string `validate:"username"`
}

type quantityFixture struct {
	Quantity decimal.Decimal `validate:"gt=0"`
}

func TestStrongPasswordValidation(t *testing.T) {
	valid := []string{"Abcdef1!", "Sup3r$ecret", "P@ssw0rdX"}
	for _, p := range valid {
		assert.NoError(t, ValidateStruct(&passwordFixture{Password: p}), p)
	}

	invalid := []string{
		"short1!",     // too short
		"alllower1!",  // no uppercase
		"ALLUPPER1!",  // no lowercase
		"NoNumbers!!", // no digit
		"NoSpecial11", // no special character
	}
	for _, p := range invalid {
		assert.Error(t, ValidateStruct(&passwordFixture{Password: p}), p)
	}
}

func TestUsernameValidation(t *testing.T) {
	assert.NoError(t, ValidateStruct(&usernameFixture{Username: "alice_01"}))
	assert.NoError(t, ValidateStruct(&usernameFixture{Username: "Bob"}))

	assert.Error(t, ValidateStruct(&usernameFixture{Username: "ab"}))
	assert.Error(t, ValidateStruct(&usernameFixture{Username: "has space"}))
	assert.Error(t, ValidateStruct(&usernameFixture{Username: "dash-name"}))
}

func TestDecimalFieldsUseNumericTags(t *testing.T) {
	assert.NoError(t, ValidateStruct(&quantityFixture{Quantity: decimal.NewFromInt(3)}))
	assert.NoError(t, ValidateStruct(&quantityFixture{Quantity: decimal.RequireFromString("0.25")}))

	assert.Error(t, ValidateStruct(&quantityFixture{Quantity: decimal.Zero}))
	assert.Error(t, ValidateStruct(&quantityFixture{Quantity: decimal.NewFromInt(-1)}))
}

func TestGetValidationErrors(t *testing.T) {
	err := ValidateStruct(&usernameFixture{Username: "x"})
	errs := GetValidationErrors(err)

	assert.Len(t, errs, 1)
	assert.Equal(t, "username", errs[0].Field)
	assert.Equal(t, "username", errs[0].Tag)
	assert.NotEmpty(t, errs[0].Message)
}
