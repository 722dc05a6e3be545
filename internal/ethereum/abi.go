package ethereum

import (
	"encoding/hex"
	"fmt"
	"math/big"
)

const wordSize = 32

// selector returns the 4-byte function selector for a canonical signature
// like "challengeLookup(string)"
func selector(signature string) []byte {
	return keccak256([]byte(signature))[:4]
}

// encodeStringCall ABI-encodes a call to a function taking a single string
// argument: selector, offset word, length word, padded data
func encodeStringCall(signature, arg string) []byte {
	argBytes := []byte(arg)
	padded := make([]byte, (len(argBytes)+wordSize-1)/wordSize*wordSize)
	copy(padded, argBytes)

	data := selector(signature)
	data = append(data, encodeUint(wordSize)...)
	data = append(data, encodeUint(uint64(len(argBytes)))...)
	data = append(data, padded...)
	return data
}

func encodeUint(v uint64) []byte {
	word := make([]byte, wordSize)
	new(big.Int).SetUint64(v).FillBytes(word)
	return word
}

// returnData is a decoded eth_call result, viewed as 32-byte words
type returnData struct {
	raw []byte
}

func parseReturnData(hexData string) (*returnData, error) {
	if len(hexData) >= 2 && hexData[:2] == "0x" {
		hexData = hexData[2:]
	}

	raw, err := hex.DecodeString(hexData)
	if err != nil {
		return nil, fmt.Errorf("invalid return data: %w", err)
	}
	if len(raw)%wordSize != 0 {
		return nil, fmt.Errorf("return data length %d is not word-aligned", len(raw))
	}

	return &returnData{raw: raw}, nil
}

func (d *returnData) word(i int) ([]byte, error) {
	start := i * wordSize
	if start+wordSize > len(d.raw) {
		return nil, fmt.Errorf("return data too short for word %d", i)
	}
	return d.raw[start : start+wordSize], nil
}

// address decodes the word at index i as a 20-byte address in 0x-hex form
func (d *returnData) address(i int) (string, error) {
	word, err := d.word(i)
	if err != nil {
		return "", err
	}
	return "0x" + hex.EncodeToString(word[12:]), nil
}

// int64Word decodes the word at index i as an unsigned integer
func (d *returnData) int64Word(i int) (int64, error) {
	word, err := d.word(i)
	if err != nil {
		return 0, err
	}
	v := new(big.Int).SetBytes(word)
	if !v.IsInt64() {
		return 0, fmt.Errorf("word %d overflows int64", i)
	}
	return v.Int64(), nil
}

// boolWord decodes the word at index i as a boolean
func (d *returnData) boolWord(i int) (bool, error) {
	word, err := d.word(i)
	if err != nil {
		return false, err
	}
	return word[wordSize-1] != 0, nil
}

// stringAt decodes a dynamic string whose offset lives in the word at index i
func (d *returnData) stringAt(i int) (string, error) {
	offsetWord, err := d.word(i)
	if err != nil {
		return "", err
	}
	offset := int(new(big.Int).SetBytes(offsetWord).Int64())

	if offset+wordSize > len(d.raw) {
		return "", fmt.Errorf("string offset %d out of range", offset)
	}
	length := int(new(big.Int).SetBytes(d.raw[offset : offset+wordSize]).Int64())

	start := offset + wordSize
	if start+length > len(d.raw) {
		return "", fmt.Errorf("string data out of range")
	}
	return string(d.raw[start : start+length]), nil
}
