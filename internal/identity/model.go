package identity

import (
	"time"

	"github.com/paisa-pay/paisa_pay/internal/ledger"
)

// User represents a registered wallet owner.
type User struct {
	ID           string
	Phone        string
	FirstName    string
	LastName     string
	ImageURL     string
	Tier         ledger.Tier
	PINHash      []byte
	TokenVersion int
	CreatedAt    time.Time
}

// Credentials carries login input.
type Credentials struct {
	Phone string
	PIN   string
}

// Registration carries onboarding input. Tier defaults to Basic.
type Registration struct {
	Phone     string
	PIN       string
	FirstName string
	LastName  string
	ImageURL  string
	Tier      ledger.Tier
}
