package domain

import "strings"

type ShippingMethod string

const (
	ShippingStandard ShippingMethod = "standard"
	ShippingExpress  ShippingMethod = "express"
)

func (m ShippingMethod) Valid() bool {
	return m == ShippingStandard || m == ShippingExpress
}

func (m ShippingMethod) String() string {
	return string(m)
}

// ParseShippingMethod accepts the two supported methods; an empty value means standard.
func ParseShippingMethod(s string) (ShippingMethod, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ShippingStandard, nil
	}
	m := ShippingMethod(s)
	if !m.Valid() {
		return "", &ValidationError{Field: "shipping_method", Message: "must be standard or express"}
	}
	return m, nil
}
