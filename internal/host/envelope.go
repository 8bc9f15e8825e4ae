package host

import (
	"crypto/ecdsa"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"stakeVault/internal/model"
)

// Payload is the signed body of an envelope. Nonce must be strictly greater
// than the last nonce accepted from Caller.
type Payload struct {
	Caller      common.Address `json:"caller"`
	Nonce       uint64         `json:"nonce"`
	Instruction Instruction    `json:"instruction"`
}

// Envelope carries an instruction signed with the caller's key over the
// personal-message hash of Payload.
type Envelope struct {
	Payload   json.RawMessage `json:"payload" validate:"required"`
	Signature hexutil.Bytes   `json:"signature" validate:"required,len=65"`
}

// Sign builds an envelope for ins from key.
func Sign(key *ecdsa.PrivateKey, nonce uint64, ins Instruction) (Envelope, error) {
	raw, err := json.Marshal(Payload{
		Caller:      crypto.PubkeyToAddress(key.PublicKey),
		Nonce:       nonce,
		Instruction: ins,
	})
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal payload: %w", err)
	}
	sig, err := crypto.Sign(accounts.TextHash(raw), key)
	if err != nil {
		return Envelope{}, fmt.Errorf("sign payload: %w", err)
	}
	return Envelope{Payload: raw, Signature: sig}, nil
}

// Open verifies the signature and returns the payload it covers.
func (e Envelope) Open() (Payload, error) {
	if len(e.Signature) != crypto.SignatureLength {
		return Payload{}, fmt.Errorf("signature length %d: %w", len(e.Signature), model.ErrInvalidSignature)
	}
	sig := make([]byte, crypto.SignatureLength)
	copy(sig, e.Signature)
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(accounts.TextHash(e.Payload), sig)
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %v", model.ErrInvalidSignature, err)
	}

	var p Payload
	if err := json.Unmarshal(e.Payload, &p); err != nil {
		return Payload{}, fmt.Errorf("%w: decode payload: %v", model.ErrInvalidInstruction, err)
	}
	if signer := crypto.PubkeyToAddress(*pub); signer != p.Caller {
		return Payload{}, fmt.Errorf("signed by %s, claims %s: %w", signer.Hex(), p.Caller.Hex(), model.ErrInvalidSignature)
	}
	return p, nil
}
