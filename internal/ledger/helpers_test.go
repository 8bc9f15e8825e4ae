package ledger

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"stakeVault/internal/model"
)

type testBook struct {
	balances map[common.Address]uint64
	fail     error
}

func newTestBook() *testBook {
	return &testBook{balances: make(map[common.Address]uint64)}
}

func (b *testBook) Transfer(_ context.Context, from, to common.Address, amount uint64) error {
	if b.fail != nil {
		return b.fail
	}
	if b.balances[from] < amount {
		return fmt.Errorf("%s has %d, needs %d: %w", from.Hex(), b.balances[from], amount, model.ErrInsufficientFunds)
	}
	b.balances[from] -= amount
	b.balances[to] += amount
	return nil
}

var (
	authority = common.HexToAddress("0xa000000000000000000000000000000000000001")
	token     = common.HexToAddress("0xb000000000000000000000000000000000000002")
	vaultAddr = common.HexToAddress("0xc000000000000000000000000000000000000003")
	alice     = common.HexToAddress("0x1111111111111111111111111111111111111111")
	bob       = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

const (
	day   = int64(24 * 60 * 60)
	year  = 365 * day
	start = int64(1_700_000_000)
)
