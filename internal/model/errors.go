package model

import "errors"

// Category groups error kinds by how a caller should react to them.
type Category string

const (
	CategoryValidation    Category = "validation"
	CategoryState         Category = "state"
	CategoryAuthorization Category = "authorization"
	CategoryArithmetic    Category = "arithmetic"
	CategoryInternal      Category = "internal"
)

var (
	ErrInvalidAmount       = errors.New("invalid amount: must be greater than 0")
	ErrInvalidLockPeriod   = errors.New("invalid lock period: must be 30, 60, or 90 days")
	ErrTierThresholdNotMet = errors.New("balance does not meet the lowest tier threshold")
	ErrTierNotImproved     = errors.New("derived tier is not higher than the stored tier")
	ErrInvalidThresholds   = errors.New("tier thresholds must be non-zero and strictly increasing")
	ErrInvalidInstruction  = errors.New("invalid instruction")

	ErrPositionClosed            = errors.New("position is closed")
	ErrLockNotExpired            = errors.New("tokens are still locked")
	ErrNoExistingAccess          = errors.New("no access record for holder")
	ErrPoolPaused                = errors.New("pool is paused")
	ErrAccessPaused              = errors.New("access minting is paused")
	ErrPoolNotInitialized        = errors.New("pool is not initialized")
	ErrPoolAlreadyInitialized    = errors.New("pool is already initialized")
	ErrPositionNotFound          = errors.New("position not found")
	ErrInsufficientFunds         = errors.New("insufficient funds")
	ErrInsufficientRewardReserve = errors.New("reward reserve cannot cover payout")
	ErrStaleNonce                = errors.New("stale nonce")

	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidSignature = errors.New("invalid signature")

	ErrArithmeticOverflow = errors.New("arithmetic overflow")
)

type errorKind struct {
	name     string
	category Category
}

var kinds = map[error]errorKind{
	ErrInvalidAmount:       {"InvalidAmount", CategoryValidation},
	ErrInvalidLockPeriod:   {"InvalidLockPeriod", CategoryValidation},
	ErrTierThresholdNotMet: {"TierThresholdNotMet", CategoryValidation},
	ErrTierNotImproved:     {"TierNotImproved", CategoryValidation},
	ErrInvalidThresholds:   {"InvalidThresholds", CategoryValidation},
	ErrInvalidInstruction:  {"InvalidInstruction", CategoryValidation},

	ErrPositionClosed:            {"PositionClosed", CategoryState},
	ErrLockNotExpired:            {"LockNotExpired", CategoryState},
	ErrNoExistingAccess:          {"NoExistingAccess", CategoryState},
	ErrPoolPaused:                {"PoolPaused", CategoryState},
	ErrAccessPaused:              {"AccessPaused", CategoryState},
	ErrPoolNotInitialized:        {"PoolNotInitialized", CategoryState},
	ErrPoolAlreadyInitialized:    {"PoolAlreadyInitialized", CategoryState},
	ErrPositionNotFound:          {"PositionNotFound", CategoryState},
	ErrInsufficientFunds:         {"InsufficientFunds", CategoryState},
	ErrInsufficientRewardReserve: {"InsufficientRewardReserve", CategoryState},
	ErrStaleNonce:                {"StaleNonce", CategoryState},

	ErrUnauthorized:     {"Unauthorized", CategoryAuthorization},
	ErrInvalidSignature: {"InvalidSignature", CategoryAuthorization},

	ErrArithmeticOverflow: {"ArithmeticOverflow", CategoryArithmetic},
}

func lookupKind(err error) (errorKind, bool) {
	if err == nil {
		return errorKind{}, false
	}
	for sentinel, kind := range kinds {
		if errors.Is(err, sentinel) {
			return kind, true
		}
	}
	return errorKind{}, false
}

// KindOf returns the stable name of the first ledger error found in err's chain.
// Unknown errors report "Internal"; nil reports "".
func KindOf(err error) string {
	if err == nil {
		return ""
	}
	if kind, ok := lookupKind(err); ok {
		return kind.name
	}
	return "Internal"
}

// CategoryOf returns the category of err, or CategoryInternal for unknown errors.
func CategoryOf(err error) Category {
	if kind, ok := lookupKind(err); ok {
		return kind.category
	}
	return CategoryInternal
}
