package ethereum

import "golang.org/x/crypto/sha3"

// keccak256 computes the legacy Keccak-256 digest Ethereum uses for
// function selectors and message hashing
func keccak256(data ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	return h.Sum(nil)
}
