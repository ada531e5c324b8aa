package employee_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/warp/shift-payroll/employee"
	"github.com/warp/shift-payroll/money"
)

func TestValidateNationalID(t *testing.T) {
	assert.NoError(t, employee.ValidateNationalID("123456782"))
	assert.NoError(t, employee.ValidateNationalID("000000018"))

	assert.ErrorIs(t, employee.ValidateNationalID("12345678"), employee.ErrNationalIDLength)
	assert.ErrorIs(t, employee.ValidateNationalID("1234567890"), employee.ErrNationalIDLength)
	assert.ErrorIs(t, employee.ValidateNationalID("12345678a"), employee.ErrNationalIDDigits)
	assert.ErrorIs(t, employee.ValidateNationalID("12345-782"), employee.ErrNationalIDDigits)
	assert.ErrorIs(t, employee.ValidateNationalID("１２３４５６７"), employee.ErrNationalIDLength)
	assert.ErrorIs(t, employee.ValidateNationalID("123456789"), employee.ErrNationalIDChecksum)
	assert.ErrorIs(t, employee.ValidateNationalID(""), employee.ErrNationalIDLength)
}

func TestEmployeeValidate(t *testing.T) {
	e := employee.Employee{Name: "Dana", NationalID: "123456782", HourlyRate: 4500}
	assert.NoError(t, e.Validate(money.DefaultBounds))

	e.HourlyRate = -1
	assert.ErrorIs(t, e.Validate(money.DefaultBounds), money.ErrBelowMinimum)

	e.Name = " "
	assert.ErrorIs(t, e.Validate(money.DefaultBounds), employee.ErrNameRequired)
}
