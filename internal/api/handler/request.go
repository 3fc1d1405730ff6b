// internal/api/handler/request.go
package handler

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"clicker-ledger/internal/util"
)

// UserID accepts a user identifier sent either as a JSON string or a JSON
// number. Numbers keep their literal text, so 12345 and "12345" name the same
// account. null, "" and 0 all decode to the empty (missing) ID.
type UserID string

// UnmarshalJSON implements json.Unmarshaler.
func (u *UserID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*u = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*u = UserID(strings.TrimSpace(s))
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return util.InvalidInput("user_id must be a string or a number")
		}
		if d, err := decimal.NewFromString(n.String()); err == nil && d.IsZero() {
			*u = ""
			return nil
		}
		*u = UserID(n.String())
	}
	return nil
}

// UserRequest is the body of POST /api/user.
type UserRequest struct {
	UserID    UserID `json:"user_id"`
	FirstName string `json:"first_name"`
	Username  string `json:"username"`
}

// UserIDRequest is the body of the click and stats endpoints.
type UserIDRequest struct {
	UserID UserID `json:"user_id"`
}

// WithdrawRequest is the body of POST /api/withdraw.
type WithdrawRequest struct {
	UserID UserID           `json:"user_id"`
	Amount *decimal.Decimal `json:"amount"` // Optional; omitted means the default amount
}

// WholeAmount converts the optional amount to coins. A missing amount yields
// 0, which the ledger treats as the default withdrawal.
func (r WithdrawRequest) WholeAmount() (int64, error) {
	if r.Amount == nil {
		return 0, nil
	}
	amount := *r.Amount
	if !amount.IsInteger() || !amount.IsPositive() || amount.GreaterThan(decimal.NewFromInt(math.MaxInt64)) {
		return 0, util.InvalidInput("amount must be a positive whole number")
	}
	return amount.IntPart(), nil
}
