package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const erc20BalanceOfABIJSON = `[
  {"inputs": [{"internalType": "address", "name": "account", "type": "address"}], "name": "balanceOf", "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}], "stateMutability": "view", "type": "function"}
]`

var (
	balanceOfABI    abi.ABI
	balanceOfOnce   sync.Once
	balanceOfABIErr error
)

func getBalanceOfABI() (abi.ABI, error) {
	balanceOfOnce.Do(func() {
		balanceOfABI, balanceOfABIErr = abi.JSON(strings.NewReader(erc20BalanceOfABIJSON))
	})
	return balanceOfABI, balanceOfABIErr
}

// TokenBalance reads owner's ERC-20 balance of token.
func (c *Client) TokenBalance(ctx context.Context, token, owner common.Address) (uint64, error) {
	balanceABI, err := getBalanceOfABI()
	if err != nil {
		return 0, err
	}

	data, err := balanceABI.Pack("balanceOf", owner)
	if err != nil {
		return 0, fmt.Errorf("pack balanceOf: %w", err)
	}

	resp, err := c.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data})
	if err != nil {
		return 0, fmt.Errorf("call balanceOf: %w", err)
	}
	return decodeBalance(balanceABI, resp)
}

func decodeBalance(balanceABI abi.ABI, resp []byte) (uint64, error) {
	values, err := balanceABI.Unpack("balanceOf", resp)
	if err != nil {
		return 0, fmt.Errorf("unpack balanceOf: %w", err)
	}
	if len(values) != 1 {
		return 0, fmt.Errorf("balanceOf return size %d", len(values))
	}
	bal, ok := values[0].(*big.Int)
	if !ok {
		return 0, fmt.Errorf("balanceOf unexpected type %T", values[0])
	}
	if !bal.IsUint64() {
		return 0, fmt.Errorf("balanceOf %s exceeds uint64", bal.String())
	}
	return bal.Uint64(), nil
}
