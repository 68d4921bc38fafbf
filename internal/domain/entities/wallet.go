package entities

import (
	"strings"
	"time"

	"github.com/wallethub/ledger/internal/domain/errors"
	"github.com/wallethub/ledger/internal/domain/ids"
)

// Wallet is the owner-level record a caller authenticates as. A wallet may
// own multiple accounts, one per currency; this core only ever opens one.
// Unlike Account, Wallet carries no balance of its own — balances live on
// accounts.
type Wallet struct {
	id          ids.WalletID
	handle      string // "" if the wallet has no handle
	displayName string
	createdAt   time.Time
}

// NewWallet creates a wallet. handle, if non-empty, must be unique among
// all wallets (enforced by the store, not here) and is always stored and
// compared without its leading "@".
func NewWallet(handle, displayName string) (*Wallet, error) {
	handle = strings.TrimPrefix(strings.TrimSpace(handle), "@")
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, errors.New(errors.KindValidation, "displayName is required").WithField("display_name")
	}
	return &Wallet{
		id:          ids.NewWalletID(),
		handle:      handle,
		displayName: displayName,
		createdAt:   time.Now().UTC(),
	}, nil
}

// ReconstructWallet hydrates a Wallet from stored fields.
func ReconstructWallet(id ids.WalletID, handle, displayName string, createdAt time.Time) *Wallet {
	return &Wallet{id: id, handle: handle, displayName: displayName, createdAt: createdAt}
}

func (w *Wallet) ID() ids.WalletID     { return w.id }
func (w *Wallet) Handle() string       { return w.handle }
func (w *Wallet) HasHandle() bool      { return w.handle != "" }
func (w *Wallet) DisplayName() string  { return w.displayName }
func (w *Wallet) CreatedAt() time.Time { return w.createdAt }
