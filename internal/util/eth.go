package util

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/crypto/sha3"
)

var ethAddressRe = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)

// IsEthAddress reports whether s is a 0x-prefixed 20-byte hex address.
func IsEthAddress(s string) bool {
	return ethAddressRe.MatchString(s)
}

// NormalizeEthAddress validates and lowercases an address. All stored
// wallet addresses go through this so equality checks are plain string
// comparisons.
func NormalizeEthAddress(s string) (string, error) {
	s = strings.TrimSpace(s)
	if !IsEthAddress(s) {
		return "", fmt.Errorf("invalid ethereum address: %q", s)
	}
	return strings.ToLower(s), nil
}

// ChecksumEthAddress returns the EIP-55 mixed-case form, used when
// showing addresses back to the frontend.
func ChecksumEthAddress(s string) (string, error) {
	addr, err := NormalizeEthAddress(s)
	if err != nil {
		return "", err
	}

	body := addr[2:]
	hash := sha3.NewLegacyKeccak256()
	hash.Write([]byte(body))
	sum := hex.EncodeToString(hash.Sum(nil))

	out := make([]byte, len(body))
	for i := 0; i < len(body); i++ {
		ch := body[i]
		if ch >= 'a' && ch <= 'f' && sum[i] >= '8' {
			ch -= 'a' - 'A'
		}
		out[i] = ch
	}
	return "0x" + string(out), nil
}
