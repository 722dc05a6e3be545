package ethereum

import (
	"bytes"
	"encoding/hex"
	"testing"
)

func TestSelectorKnownSignature(t *testing.T) {
	// Standard ERC-20 transfer selector
	got := hex.EncodeToString(selector("transfer(address,uint256)"))
	if got != "a9059cbb" {
		t.Errorf("Expected a9059cbb, got %s", got)
	}
}

func TestEncodeStringCall(t *testing.T) {
	data := encodeStringCall(challengeLookupSignature, "challenge-1")

	// selector + offset word + length word + one padded data word
	if len(data) != 4+wordSize*3 {
		t.Fatalf("Expected %d bytes, got %d", 4+wordSize*3, len(data))
	}

	if !bytes.Equal(data[:4], selector(challengeLookupSignature)) {
		t.Error("Expected calldata to start with function selector")
	}

	offset := data[4 : 4+wordSize]
	if !bytes.Equal(offset, encodeUint(wordSize)) {
		t.Errorf("Expected offset word 32, got %x", offset)
	}

	length := data[4+wordSize : 4+wordSize*2]
	if !bytes.Equal(length, encodeUint(uint64(len("challenge-1")))) {
		t.Errorf("Expected length word %d, got %x", len("challenge-1"), length)
	}

	padded := data[4+wordSize*2:]
	if string(padded[:len("challenge-1")]) != "challenge-1" {
		t.Errorf("Unexpected string data %q", padded)
	}
	for _, b := range padded[len("challenge-1"):] {
		if b != 0 {
			t.Error("Expected zero padding after string data")
			break
		}
	}
}

func TestEncodeStringCallWordBoundary(t *testing.T) {
	// A 32-byte argument occupies exactly one data word, no padding word
	arg := string(make([]byte, wordSize))
	data := encodeStringCall(challengeLookupSignature, arg)
	if len(data) != 4+wordSize*3 {
		t.Errorf("Expected %d bytes, got %d", 4+wordSize*3, len(data))
	}
}

func TestParseReturnDataErrors(t *testing.T) {
	if _, err := parseReturnData("0xzz"); err == nil {
		t.Error("Expected error for invalid hex")
	}
	if _, err := parseReturnData("0xabcd"); err == nil {
		t.Error("Expected error for non-word-aligned data")
	}
}

func TestReturnDataDecoding(t *testing.T) {
	var raw []byte
	raw = append(raw, encodeUint(3*wordSize)...) // offset of the string
	raw = append(raw, addressWord(t, "0x63958fDFA9DAF21bb9bE4312c3f53cb080DA80D8")...)
	raw = append(raw, encodeUint(1)...) // bool true
	raw = append(raw, encodeUint(uint64(len("hello")))...)
	padded := make([]byte, wordSize)
	copy(padded, "hello")
	raw = append(raw, padded...)

	data := &returnData{raw: raw}

	s, err := data.stringAt(0)
	if err != nil {
		t.Fatalf("Failed to decode string: %v", err)
	}
	if s != "hello" {
		t.Errorf("Expected hello, got %q", s)
	}

	addr, err := data.address(1)
	if err != nil {
		t.Fatalf("Failed to decode address: %v", err)
	}
	if addr != "0x63958fdfa9daf21bb9be4312c3f53cb080da80d8" {
		t.Errorf("Unexpected address %s", addr)
	}

	b, err := data.boolWord(2)
	if err != nil {
		t.Fatalf("Failed to decode bool: %v", err)
	}
	if !b {
		t.Error("Expected true")
	}

	if _, err := data.word(10); err == nil {
		t.Error("Expected error for out-of-range word")
	}
}

// addressWord encodes a 0x-hex address as a left-padded 32-byte word
func addressWord(t *testing.T, addr string) []byte {
	t.Helper()

	raw, err := hex.DecodeString(addr[2:])
	if err != nil {
		t.Fatalf("Invalid test address: %v", err)
	}
	word := make([]byte, wordSize)
	copy(word[wordSize-len(raw):], raw)
	return word
}
