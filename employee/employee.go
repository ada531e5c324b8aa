// Package employee holds the employee record the payroll engine reads and the
// national id checksum used to validate it.
package employee

import (
	"errors"
	"fmt"
	"strings"

	"github.com/warp/shift-payroll/money"
)

var (
	ErrNationalIDLength   = errors.New("national id must be exactly 9 digits")
	ErrNationalIDDigits   = errors.New("national id must contain only digits")
	ErrNationalIDChecksum = errors.New("national id checksum mismatch")
	ErrNameRequired       = errors.New("employee name is required")
)

// Employee is one worker of an organization.
type Employee struct {
	ID             string       `json:"id"`
	OrganizationID string       `json:"organizationId"`
	Name           string       `json:"name"`
	NationalID     string       `json:"nationalId"`
	HourlyRate     money.Agorot `json:"hourlyRateAgorot"`
}

// Validate checks the fields an employee must have before payroll can use it.
// The hourly rate is checked against bounds.
func (e Employee) Validate(bounds money.Bounds) error {
	if strings.TrimSpace(e.Name) == "" {
		return ErrNameRequired
	}
	if err := ValidateNationalID(e.NationalID); err != nil {
		return err
	}
	if err := money.ValidateMinor(e.HourlyRate, bounds); err != nil {
		return fmt.Errorf("hourly rate: %w", err)
	}
	return nil
}

// ValidateNationalID accepts exactly nine ASCII digits passing the Israeli
// identity number checksum: digits are weighted 1,2,1,2,... left to right,
// two-digit products are reduced by their digit sum, and the total must be a
// multiple of 10.
func ValidateNationalID(id string) error {
	if len(id) != 9 {
		return ErrNationalIDLength
	}
	sum := 0
	for i := 0; i < len(id); i++ {
		c := id[i]
		if c < '0' || c > '9' {
			return ErrNationalIDDigits
		}
		n := int(c-'0') * (i%2 + 1)
		if n > 9 {
			n -= 9
		}
		sum += n
	}
	if sum%10 != 0 {
		return ErrNationalIDChecksum
	}
	return nil
}
