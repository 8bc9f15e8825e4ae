package host

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"

	"stakeVault/internal/model"
)

// Op names an instruction.
type Op string

const (
	OpInitialize      Op = "initialize"
	OpStake           Op = "stake"
	OpClaimRewards    Op = "claim_rewards"
	OpUnstake         Op = "unstake"
	OpMintAccess      Op = "mint_access"
	OpVerifyAccess    Op = "verify_access"
	OpUpgradeTier     Op = "upgrade_tier"
	OpSetPaused       Op = "set_paused"
	OpSetAccessPaused Op = "set_access_paused"
	OpUpdateRates     Op = "update_rates"
	OpFundRewards     Op = "fund_rewards"
)

// Instruction is one caller-issued ledger operation. Only the fields used by
// Op are read.
type Instruction struct {
	Op         Op              `json:"op" validate:"required,oneof=initialize stake claim_rewards unstake mint_access verify_access upgrade_tier set_paused set_access_paused update_rates fund_rewards"`
	Token      *common.Address `json:"token,omitempty" validate:"required_if=Op initialize"`
	Rates      *model.Rates    `json:"rates,omitempty" validate:"required_if=Op update_rates"`
	Amount     uint64          `json:"amount,omitempty"`
	LockDays   uint16          `json:"lock_days,omitempty"`
	PositionID uint64          `json:"position_id,omitempty"`
	Owner      *common.Address `json:"owner,omitempty"`
	Paused     *bool           `json:"paused,omitempty" validate:"required_if=Op set_paused,required_if=Op set_access_paused"`
}

var validate = validator.New()

// Validate checks the instruction shape. Domain rules such as amounts and
// lock periods are left to the ledgers.
func (i Instruction) Validate() error {
	if err := validate.Struct(i); err != nil {
		return fmt.Errorf("%w: %v", model.ErrInvalidInstruction, err)
	}
	return nil
}

// owner returns the target holder of an access instruction, defaulting to
// the caller.
func (i Instruction) owner(caller common.Address) common.Address {
	if i.Owner != nil {
		return *i.Owner
	}
	return caller
}

// Receipt is the committed result of an instruction.
type Receipt struct {
	Op         Op                  `json:"op"`
	Caller     common.Address      `json:"caller"`
	Timestamp  int64               `json:"timestamp"`
	PositionID uint64              `json:"position_id,omitempty"`
	Amount     uint64              `json:"amount,omitempty"`
	Tier       *model.Tier         `json:"tier,omitempty"`
	Events     []model.EventRecord `json:"events"`
}
