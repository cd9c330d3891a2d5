// Package economy implements the gold ledger of a session: the player's
// wallet, the shared treasury that funds treasures, and the profit and loss
// counters shown to the player.
package economy

import (
	"errors"
	"sync"
)

// Economy-related errors.
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("amount must not be negative")
)

// Defaults observed for a fresh session.
const (
	DefaultStartingTreasury     int64 = 100000
	DefaultTreasurySharePercent       = 50
)

// Reason labels a wallet movement.
type Reason string

const (
	ReasonClaim      Reason = "claim"
	ReasonParking    Reason = "parking"
	ReasonTreasure   Reason = "treasure"
	ReasonHint       Reason = "hint"
	ReasonPurchase   Reason = "purchase"
	ReasonConversion Reason = "conversion"
	ReasonBonus      Reason = "bonus"
)

// countsAsLoss reports whether a charge for r is added to TotalLoss.
// Converting gold moves value out of the game rather than spending it.
func (r Reason) countsAsLoss() bool {
	return r != ReasonConversion
}

// countsAsProfit reports whether a credit for r is added to TotalProfit.
// Purchased gold is a deposit, not a gain.
func (r Reason) countsAsProfit() bool {
	return r != ReasonPurchase
}

// State is a read-only view of the ledger.
type State struct {
	WalletBalance int64 `json:"walletBalance"`
	Treasury      int64 `json:"treasury"`
	TotalProfit   int64 `json:"totalProfit"`
	TotalLoss     int64 `json:"totalLoss"`
}

// Split is how claim revenue was divided.
type Split struct {
	Treasury  int64 `json:"treasury"`
	Developer int64 `json:"developer"`
}

// Route describes where a parking fee went. When ToTreasury is false the
// fee is owed to Owner and must be delivered by the caller.
type Route struct {
	Owner      string `json:"owner,omitempty"`
	Amount     int64  `json:"amount"`
	ToTreasury bool   `json:"toTreasury"`
}

// Config seeds a Ledger.
type Config struct {
	StartingBalance      int64
	StartingTreasury     int64
	TreasurySharePercent int
}

// Ledger holds the wallet and treasury. Balances only change through its
// methods, and every debit checks and applies under the same lock.
type Ledger struct {
	state           State
	treasuryPercent int
	sync.Mutex
}

// NewLedger returns a ledger seeded from c.
func NewLedger(c Config) (*Ledger, error) {
	if c.StartingBalance < 0 || c.StartingTreasury < 0 {
		return nil, ErrInvalidAmount
	}
	pct := c.TreasurySharePercent
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return &Ledger{
		state: State{
			WalletBalance: c.StartingBalance,
			Treasury:      c.StartingTreasury,
		},
		treasuryPercent: pct,
	}, nil
}

// State returns a copy of the current balances.
func (l *Ledger) State() State {
	l.Lock()
	defer l.Unlock()
	return l.state
}

// CanAfford reports whether the wallet holds at least amount.
func (l *Ledger) CanAfford(amount int64) bool {
	l.Lock()
	defer l.Unlock()
	return amount >= 0 && l.state.WalletBalance >= amount
}

// Charge debits amount from the wallet. A rejected charge leaves the ledger
// untouched.
func (l *Ledger) Charge(amount int64, reason Reason) error {
	if amount < 0 {
		return ErrInvalidAmount
	}
	l.Lock()
	defer l.Unlock()

	if l.state.WalletBalance < amount {
		return ErrInsufficientFunds
	}
	l.state.WalletBalance -= amount
	if reason.countsAsLoss() {
		l.state.TotalLoss += amount
	}
	return nil
}

// Credit adds amount to the wallet. Non-positive amounts are ignored.
func (l *Ledger) Credit(amount int64, reason Reason) {
	if amount <= 0 {
		return
	}
	l.Lock()
	defer l.Unlock()

	l.state.WalletBalance += amount
	if reason.countsAsProfit() {
		l.state.TotalProfit += amount
	}
}

// SplitClaimRevenue divides claim proceeds between the treasury and the
// operator account and credits the treasury share immediately. The operator
// receives the remainder so no gold is lost to rounding.
func (l *Ledger) SplitClaimRevenue(amount int64) Split {
	if amount <= 0 {
		return Split{}
	}
	l.Lock()
	defer l.Unlock()

	treasury := amount * int64(l.treasuryPercent) / 100
	l.state.Treasury += treasury
	return Split{Treasury: treasury, Developer: amount - treasury}
}

// RouteParking sends a collected parking fee to the cell owner, or to the
// treasury when the cell has none.
func (l *Ledger) RouteParking(amount int64, owner string) Route {
	if owner != "" {
		return Route{Owner: owner, Amount: amount}
	}
	if amount > 0 {
		l.Lock()
		l.state.Treasury += amount
		l.Unlock()
	}
	return Route{Amount: amount, ToTreasury: true}
}

// Payout draws up to amount from the treasury and returns what was granted.
// depleted is true when the treasury could not cover the full amount; this
// is a degrade signal, the partial grant still stands.
func (l *Ledger) Payout(amount int64) (granted int64, depleted bool) {
	if amount <= 0 {
		return 0, false
	}
	l.Lock()
	defer l.Unlock()

	granted = min(amount, l.state.Treasury)
	l.state.Treasury -= granted
	return granted, granted < amount
}

// RecordBonus adds score-only winnings to TotalProfit without touching the
// wallet.
func (l *Ledger) RecordBonus(amount int64) {
	if amount <= 0 {
		return
	}
	l.Lock()
	defer l.Unlock()
	l.state.TotalProfit += amount
}
