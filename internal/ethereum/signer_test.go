package ethereum

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// Throwaway key, not used anywhere real
const testPrivateKey = "0000000000000000000000000000000000000000000000000000000000000001"

func TestNewSignerValidation(t *testing.T) {
	if _, err := NewSigner(testPrivateKey); err != nil {
		t.Errorf("Expected valid key to parse, got %v", err)
	}
	if _, err := NewSigner("0x" + testPrivateKey); err != nil {
		t.Errorf("Expected 0x-prefixed key to parse, got %v", err)
	}
	if _, err := NewSigner("not-hex"); err == nil {
		t.Error("Expected error for non-hex key")
	}
	if _, err := NewSigner("abcd"); err == nil {
		t.Error("Expected error for short key")
	}
}

func TestSignerAddress(t *testing.T) {
	signer, err := NewSigner(testPrivateKey)
	if err != nil {
		t.Fatalf("Failed to create signer: %v", err)
	}

	// Well-known address for private key 1
	if got := signer.Address(); got != "0x7e5f4552091a69125d5dfcb7b8c2659029395bdf" {
		t.Errorf("Unexpected address %s", got)
	}
}

func TestSignProducesVerifiableSignature(t *testing.T) {
	signer, err := NewSigner(testPrivateKey)
	if err != nil {
		t.Fatalf("Failed to create signer: %v", err)
	}

	att, err := signer.Sign("challenge-1")
	if err != nil {
		t.Fatalf("Failed to sign: %v", err)
	}

	if att.ChallengeID != "challenge-1" {
		t.Errorf("Expected challenge-1, got %s", att.ChallengeID)
	}
	if !strings.HasPrefix(att.MessageHash, "0x") || len(att.MessageHash) != 66 {
		t.Errorf("Unexpected message hash format %s", att.MessageHash)
	}
	if !strings.HasPrefix(att.Signature, "0x") || len(att.Signature) != 132 {
		t.Errorf("Unexpected signature format %s", att.Signature)
	}

	sig, err := hex.DecodeString(att.Signature[2:])
	if err != nil {
		t.Fatalf("Failed to decode signature: %v", err)
	}
	if sig[64] != 27 && sig[64] != 28 {
		t.Errorf("Expected recovery byte 27 or 28, got %d", sig[64])
	}

	hash, err := hex.DecodeString(att.MessageHash[2:])
	if err != nil {
		t.Fatalf("Failed to decode message hash: %v", err)
	}

	// The hash is the EIP-191 personal-sign digest of the identifier
	expected := keccak256([]byte("\x19Ethereum Signed Message:\n11challenge-1"))
	if !strings.EqualFold(hex.EncodeToString(expected), att.MessageHash[2:]) {
		t.Error("Message hash does not match personal-sign digest")
	}

	// Recover the public key from the [R,S,V] signature
	compact := make([]byte, 65)
	compact[0] = sig[64]
	copy(compact[1:], sig[:64])

	pubKey, _, err := ecdsa.RecoverCompact(compact, hash)
	if err != nil {
		t.Fatalf("Failed to recover public key: %v", err)
	}
	if !pubKey.IsEqual(signer.privKey.PubKey()) {
		t.Error("Recovered public key does not match signer")
	}
}

func TestSignIsDeterministic(t *testing.T) {
	signer, err := NewSigner(testPrivateKey)
	if err != nil {
		t.Fatalf("Failed to create signer: %v", err)
	}

	first, err := signer.Sign("challenge-1")
	if err != nil {
		t.Fatalf("Failed to sign: %v", err)
	}
	second, err := signer.Sign("challenge-1")
	if err != nil {
		t.Fatalf("Failed to sign: %v", err)
	}

	if first.Signature != second.Signature {
		t.Error("Expected identical signatures for the same identifier")
	}

	other, err := signer.Sign("challenge-2")
	if err != nil {
		t.Fatalf("Failed to sign: %v", err)
	}
	if other.Signature == first.Signature {
		t.Error("Expected distinct signatures for distinct identifiers")
	}
}

func TestSignRejectsEmptyID(t *testing.T) {
	signer, err := NewSigner(testPrivateKey)
	if err != nil {
		t.Fatalf("Failed to create signer: %v", err)
	}

	if _, err := signer.Sign(""); err == nil {
		t.Error("Expected error signing empty identifier")
	}
}
