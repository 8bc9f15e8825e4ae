// Package ledger holds the stake and access state machines. Every operation
// validates all of its preconditions before it touches a record or moves a
// token, so a failed call leaves its inputs exactly as it found them. The
// caller (the host) is responsible for running each call inside one atomic
// unit of work with exclusive access to the records it passes in.
package ledger

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// Transferer moves tokens between accounts of the host token book.
type Transferer interface {
	Transfer(ctx context.Context, from, to common.Address, amount uint64) error
}
