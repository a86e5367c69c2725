package payments

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/paisa-pay/paisa_pay/internal/ledger"
)

// Authorizer represents the external payment gateway consulted before a
// deposit touches the ledger. Authorization happens strictly before any
// wallet lock is acquired.
type Authorizer interface {
	Authorize(ctx context.Context, req AuthorizationRequest) (AuthorizationDecision, error)
}

// AuthorizationRequest carries the data the gateway needs for a decision.
type AuthorizationRequest struct {
	Amount      decimal.Decimal
	Mode        ledger.Mode
	Description string
}

// AuthorizationDecision is the gateway's verdict.
type AuthorizationDecision struct {
	Approved  bool
	Reference string
	Reason    string
}

// StaticAuthorizer simulates a gateway. The zero value approves every
// request with a synthetic reference; setting DenyAbove makes larger
// amounts fail, which tests use to exercise the denial path.
type StaticAuthorizer struct {
	DenyAbove decimal.Decimal
}

func (a StaticAuthorizer) Authorize(_ context.Context, req AuthorizationRequest) (AuthorizationDecision, error) {
	if a.DenyAbove.Sign() > 0 && req.Amount.GreaterThan(a.DenyAbove) {
		return AuthorizationDecision{Approved: false, Reason: "amount declined by issuer"}, nil
	}
	return AuthorizationDecision{Approved: true, Reference: uuid.NewString()}, nil
}
