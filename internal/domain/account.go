// internal/domain/account.go
package domain

import "time"

// Game economy constants.
const (
	ClickReward             int64 = 10  // Coins awarded per accepted click
	DefaultWithdrawAmount   int64 = 100 // Used when a withdrawal does not name an amount
	DefaultLeaderboardLimit       = 10
	MaxLeaderboardLimit           = 100
)

// Fallback profile values for accounts created without display fields.
const (
	DefaultFirstName = "User"
	DefaultUsername  = "unknown"
)

// Account is the per-user record of balance, click count and identity fields.
type Account struct {
	UserID    string    `db:"user_id" json:"user_id"`
	FirstName string    `db:"first_name" json:"first_name"` // Write-once display name
	Username  string    `db:"username" json:"username"`     // Write-once handle
	Balance   int64     `db:"balance" json:"balance"`       // Coins, never negative
	Clicks    int64     `db:"clicks" json:"clicks"`         // Accepted click events
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	Seq       int64     `db:"seq" json:"-"` // Creation order, used to break leaderboard ties
}

// Profile carries the optional display fields supplied on first reference.
type Profile struct {
	FirstName string
	Username  string
}

// NewAccount creates a new Account with a zero balance, applying the fallback
// profile values for any field left empty.
func NewAccount(userID string, profile Profile, now time.Time) *Account {
	firstName := profile.FirstName
	if firstName == "" {
		firstName = DefaultFirstName
	}
	username := profile.Username
	if username == "" {
		username = DefaultUsername
	}
	return &Account{
		UserID:    userID,
		FirstName: firstName,
		Username:  username,
		CreatedAt: now.UTC(),
	}
}

// CanWithdraw reports whether amount can be taken without going negative.
func (a *Account) CanWithdraw(amount int64) bool {
	return amount > 0 && a.Balance >= amount
}
