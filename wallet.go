package dapptober

import (
	"context"
	"crypto/ecdsa"

	"github.com/layer-3/dapptober/internal/eth"
)

// KeyWallet signs with a local private key. Useful for bots and tests.
type KeyWallet struct {
	key *ecdsa.PrivateKey
}

func NewKeyWallet(key *ecdsa.PrivateKey) *KeyWallet {
	return &KeyWallet{key: key}
}

func (w *KeyWallet) Address() string {
	return eth.AddressOf(w.key)
}

func (w *KeyWallet) SignMessage(ctx context.Context, message string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return eth.PersonalSign(w.key, message)
}
