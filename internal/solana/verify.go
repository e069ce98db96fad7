package solana

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	solanago "github.com/gagliardetto/solana-go"
)

// Wallet ownership proof: the client signs a timestamped login message with
// the wallet's ed25519 key. Verifying it proves control of the address
// without a custom challenge round-trip; the timestamp bounds replay.

// LoginProof is what the client submits to authenticate.
type LoginProof struct {
	Address   string `json:"address"`
	Timestamp int64  `json:"timestamp"`
	Signature string `json:"signature"` // base58, over BuildLoginMessage
}

// BuildLoginMessage constructs the exact bytes the wallet must sign.
func BuildLoginMessage(address string, timestamp int64) []byte {
	return []byte(fmt.Sprintf("wordstake:login:%s:%d", address, timestamp))
}

// VerifyLoginProof checks the proof's freshness and ed25519 signature.
func VerifyLoginProof(proof LoginProof) error {
	issued := time.Unix(proof.Timestamp, 0)
	if time.Since(issued) > LoginProofTTL {
		return errors.New("proof expired")
	}
	if issued.After(time.Now().Add(time.Minute)) {
		return errors.New("proof timestamp in the future")
	}

	pub, err := solanago.PublicKeyFromBase58(proof.Address)
	if err != nil {
		return fmt.Errorf("invalid wallet address: %w", err)
	}

	sig, err := solanago.SignatureFromBase58(proof.Signature)
	if err != nil {
		return fmt.Errorf("invalid signature format: %w", err)
	}

	msg := BuildLoginMessage(proof.Address, proof.Timestamp)
	if !ed25519.Verify(ed25519.PublicKey(pub[:]), msg, sig[:]) {
		return errors.New("invalid signature")
	}

	return nil
}

// ValidateAddress reports whether the string parses as a Solana public key.
func ValidateAddress(address string) bool {
	_, err := solanago.PublicKeyFromBase58(address)
	return err == nil
}
