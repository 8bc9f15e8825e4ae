package host

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"stakeVault/internal/model"
	"stakeVault/internal/reward"
	"stakeVault/internal/storage"
)

// VaultAddress derives the custody account that holds a token's staked and
// reward balances.
func VaultAddress(token common.Address) common.Address {
	return common.BytesToAddress(crypto.Keccak256([]byte("stakevault:vault"), token.Bytes())[12:])
}

// book is the token book seen through one store transaction. Transfers are
// committed or discarded together with the instruction that made them.
type book struct {
	tx storage.Tx
}

func (b book) Transfer(ctx context.Context, from, to common.Address, amount uint64) error {
	if amount == 0 {
		return nil
	}
	fromBalance, err := b.tx.Balance(ctx, from)
	if err != nil {
		return err
	}
	if fromBalance < amount {
		return fmt.Errorf("%s holds %d, needs %d: %w", from.Hex(), fromBalance, amount, model.ErrInsufficientFunds)
	}
	if err := b.tx.SetBalance(ctx, from, fromBalance-amount); err != nil {
		return err
	}

	toBalance, err := b.tx.Balance(ctx, to)
	if err != nil {
		return err
	}
	next, err := reward.Add(toBalance, amount)
	if err != nil {
		return fmt.Errorf("credit %s: %w", to.Hex(), err)
	}
	return b.tx.SetBalance(ctx, to, next)
}
