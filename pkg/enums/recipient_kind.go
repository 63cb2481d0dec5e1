package enums

import "fmt"

// RecipientKind distinguishes which table a notification recipient lives in.
type RecipientKind string

const (
	RecipientProfile  RecipientKind = "profile"
	RecipientMerchant RecipientKind = "merchant"
)

var validRecipientKinds = []RecipientKind{RecipientProfile, RecipientMerchant}

// IsValid checks whether the given kind matches the canonical enum.
func (r RecipientKind) IsValid() bool {
	for _, candidate := range validRecipientKinds {
		if candidate == r {
			return true
		}
	}
	return false
}

func (r RecipientKind) String() string { return string(r) }

// ParseRecipientKind converts raw strings into RecipientKind.
func ParseRecipientKind(value string) (RecipientKind, error) {
	for _, candidate := range validRecipientKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid recipient kind %q", value)
}
