package ethereum

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"rundapp-engine/internal/metrics"
)

// SignedAttestation is a signed hash of a challenge identifier, verifiable
// by the contract to authorize bounty release. Computed on demand, never
// persisted.
type SignedAttestation struct {
	ChallengeID string
	MessageHash string
	Signature   string
}

// Signer produces EIP-191 personal-sign attestations with a held private
// key. The key is loaded once at startup and never logged.
type Signer struct {
	privKey *secp256k1.PrivateKey
}

// NewSigner parses a hex-encoded secp256k1 private key
func NewSigner(hexKey string) (*Signer, error) {
	hexKey = strings.TrimPrefix(hexKey, "0x")

	keyBytes, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("invalid signer private key: %w", err)
	}
	if len(keyBytes) != 32 {
		return nil, fmt.Errorf("signer private key must be 32 bytes, got %d", len(keyBytes))
	}

	return &Signer{privKey: secp256k1.PrivKeyFromBytes(keyBytes)}, nil
}

// Address returns the Ethereum address of the signing key, for
// startup logging and contract configuration checks
func (s *Signer) Address() string {
	pubKey := s.privKey.PubKey().SerializeUncompressed()
	// Address is the last 20 bytes of the keccak hash of the raw public key
	hash := keccak256(pubKey[1:])
	return "0x" + hex.EncodeToString(hash[12:])
}

// Sign hashes and signs a challenge identifier. The hash follows the
// EIP-191 personal-sign scheme the verifying contract expects:
// keccak256("\x19Ethereum Signed Message:\n" + len(id) + id).
// Deterministic for a given key and identifier (RFC 6979 nonces).
func (s *Signer) Sign(challengeID string) (*SignedAttestation, error) {
	if challengeID == "" {
		return nil, fmt.Errorf("challenge id must not be empty")
	}

	prefixed := "\x19Ethereum Signed Message:\n" + strconv.Itoa(len(challengeID)) + challengeID
	hash := keccak256([]byte(prefixed))

	// SignCompact returns [recovery header, R, S]; Ethereum verifiers want
	// [R, S, V] with V of 27 or 28
	compact := ecdsa.SignCompact(s.privKey, hash, false)
	signature := make([]byte, 65)
	copy(signature, compact[1:])
	signature[64] = compact[0]

	metrics.AttestationsSignedTotal.Inc()

	return &SignedAttestation{
		ChallengeID: challengeID,
		MessageHash: "0x" + hex.EncodeToString(hash),
		Signature:   "0x" + hex.EncodeToString(signature),
	}, nil
}
