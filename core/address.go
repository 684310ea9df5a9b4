package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// NormalizeAddress validates a hex wallet address and returns it lowercased
func NormalizeAddress(address string) (string, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return "", fmt.Errorf("address is required: %w", ErrInvalidRequest)
	}
	if !common.IsHexAddress(address) || !strings.HasPrefix(strings.ToLower(address), "0x") {
		return "", fmt.Errorf("malformed address %q: %w", address, ErrInvalidRequest)
	}
	return strings.ToLower(address), nil
}

// ShortAddress renders 0x1234...abcd for display fallbacks
func ShortAddress(address string) string {
	if len(address) < 10 {
		return address
	}
	return address[:6] + "..." + address[len(address)-4:]
}

// SignInMessage builds the text a wallet signs to prove control of address.
// The nonce appears verbatim on its own line.
func SignInMessage(domain, address, nonce string, issuedAt time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s wants you to sign in with your Ethereum account:\n", domain)
	fmt.Fprintf(&b, "%s\n\n", address)
	b.WriteString("Sign in to Dapptober. This request will not trigger a blockchain transaction or cost any gas fees.\n\n")
	fmt.Fprintf(&b, "Nonce: %s\n", nonce)
	fmt.Fprintf(&b, "Issued At: %s", issuedAt.UTC().Format(time.RFC3339))
	return b.String()
}
