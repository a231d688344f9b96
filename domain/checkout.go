package domain

import (
	"net/mail"
	"strings"
	"time"
)

type ShippingAddress struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Address   string `json:"address"`
	Apartment string `json:"apartment,omitempty"`
	City      string `json:"city"`
	State     string `json:"state"`
	Zip       string `json:"zip"`
	Country   string `json:"country"`
}

// Validate requires every field except Apartment.
func (a ShippingAddress) Validate() error {
	required := []struct {
		field string
		value string
	}{
		{"first_name", a.FirstName},
		{"last_name", a.LastName},
		{"address", a.Address},
		{"city", a.City},
		{"state", a.State},
		{"zip", a.Zip},
		{"country", a.Country},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &ValidationError{Field: r.field, Message: "is required"}
		}
	}
	return nil
}

func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return &ValidationError{Field: "email", Message: "is required"}
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return &ValidationError{Field: "email", Message: "is not a valid address"}
	}
	return nil
}

// CheckoutState is the transient draft owned by one checkout flow.
// Items is the cart snapshot taken when checkout started.
type CheckoutState struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	Email           string          `json:"email,omitempty"`
	ShippingAddress ShippingAddress `json:"shipping_address"`
	ShippingMethod  ShippingMethod  `json:"shipping_method"`
	Items           []LineItem      `json:"items"`
	StartedAt       time.Time       `json:"started_at"`
}

// ValidateDetails checks the contact and address form.
func (s CheckoutState) ValidateDetails() error {
	if err := ValidateEmail(s.Email); err != nil {
		return err
	}
	return s.ShippingAddress.Validate()
}
