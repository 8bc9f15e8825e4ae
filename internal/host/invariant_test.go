package host

import (
	"context"
	"math/rand"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"stakeVault/internal/model"
)

// TestRandomOperationsKeepVaultSolvent drives a seeded mix of stakes, claims,
// unstakes and clock advances, checking after every step that the audit is
// healthy, that tokens are neither created nor destroyed, and that a rejected
// instruction leaves the store untouched.
func TestRandomOperationsKeepVaultSolvent(t *testing.T) {
	const (
		seed    = 20241018
		steps   = 400
		reserve = uint64(50_000_000)
		credit  = uint64(100_000)
	)
	rng := rand.New(rand.NewSource(seed))
	f := initialized(t, reserve)
	ctx := context.Background()

	holders := []common.Address{
		alice,
		bob,
		common.HexToAddress("0x3333333333333333333333333333333333333333"),
		common.HexToAddress("0x4444444444444444444444444444444444444444"),
	}
	for _, h := range holders {
		_, err := f.exec.Credit(ctx, h, credit)
		require.NoError(t, err)
	}
	accounts := append([]common.Address{authority, VaultAddress(token)}, holders...)
	supply := reserve + credit*uint64(len(holders))
	lockDays := []uint16{30, 60, 90}

	var opened uint64
	for step := 0; step < steps; step++ {
		caller := holders[rng.Intn(len(holders))]
		var ins Instruction
		switch roll := rng.Intn(10); {
		case roll < 4:
			ins = Instruction{Op: OpStake, Amount: uint64(rng.Int63n(20_000)), LockDays: lockDays[rng.Intn(len(lockDays))]}
		case roll < 6 && opened > 0:
			ins = Instruction{Op: OpClaimRewards, PositionID: 1 + uint64(rng.Int63n(int64(opened)))}
		case roll < 8 && opened > 0:
			ins = Instruction{Op: OpUnstake, PositionID: 1 + uint64(rng.Int63n(int64(opened)))}
		default:
			f.clock.now += rng.Int63n(15 * day)
			checkInvariants(t, f, accounts, supply, step)
			continue
		}

		before := f.snapshot(t)
		receipt, err := f.exec.Execute(ctx, caller, ins)
		if err != nil {
			switch model.CategoryOf(err) {
			case model.CategoryValidation, model.CategoryState, model.CategoryAuthorization:
			default:
				t.Fatalf("step %d: %s by %s: unexpected error %v", step, ins.Op, caller.Hex(), err)
			}
			require.Equal(t, before, f.snapshot(t), "step %d: rejected %s changed state", step, ins.Op)
		} else if ins.Op == OpStake {
			opened = receipt.PositionID
		}
		checkInvariants(t, f, accounts, supply, step)
	}
	require.NotZero(t, opened, "seed produced no stakes")
}

func checkInvariants(t *testing.T, f *fixture, accounts []common.Address, supply uint64, step int) {
	t.Helper()
	ctx := context.Background()

	report, err := f.exec.Audit(ctx)
	require.NoError(t, err)
	require.True(t, report.Healthy(), "step %d: unhealthy audit %+v", step, report)

	var total uint64
	for _, account := range accounts {
		balance, err := f.exec.Balance(ctx, account)
		require.NoError(t, err)
		total += balance
	}
	require.Equal(t, supply, total, "step %d: token supply changed", step)
}
