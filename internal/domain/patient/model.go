package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient is a registered patient record. MRN is the human-facing medical
// record number, unique across the installation.
type Patient struct {
	ID               uuid.UUID  `json:"id"`
	MRN              string     `json:"mrn"`
	FirstName        string     `json:"first_name"`
	LastName         string     `json:"last_name"`
	Gender           string     `json:"gender"`
	BirthDate        *time.Time `json:"birth_date,omitempty"`
	Phone            *string    `json:"phone,omitempty"`
	Email            *string    `json:"email,omitempty"`
	AddressLine      *string    `json:"address_line,omitempty"`
	City             *string    `json:"city,omitempty"`
	State            *string    `json:"state,omitempty"`
	PostalCode       *string    `json:"postal_code,omitempty"`
	BloodGroup       *string    `json:"blood_group,omitempty"`
	Allergies        []string   `json:"allergies,omitempty"`
	EmergencyName    *string    `json:"emergency_contact_name,omitempty"`
	EmergencyPhone   *string    `json:"emergency_contact_phone,omitempty"`
	InsuranceProvider *string   `json:"insurance_provider,omitempty"`
	InsurancePolicyNo *string   `json:"insurance_policy_no,omitempty"`
	Active           bool       `json:"active"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// FullName returns the display name.
func (p *Patient) FullName() string {
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}
