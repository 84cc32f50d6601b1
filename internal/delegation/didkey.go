package delegation

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// did:key encoding for ed25519 public keys: the multicodec ed25519-pub
// prefix (0xed 0x01) followed by the key bytes, base58btc encoded with the
// multibase 'z' marker.
var ed25519PubPrefix = []byte{0xed, 0x01}

const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

// EncodeDID renders an ed25519 public key as a did:key identifier.
func EncodeDID(pub ed25519.PublicKey) string {
	payload := append(append([]byte(nil), ed25519PubPrefix...), pub...)
	return "did:key:z" + encodeBase58(payload)
}

// DecodeDID extracts the ed25519 public key from a did:key identifier.
func DecodeDID(did string) (ed25519.PublicKey, error) {
	encoded, ok := strings.CutPrefix(did, "did:key:z")
	if !ok {
		return nil, fmt.Errorf("delegation: %q is not a base58 did:key", did)
	}
	payload, err := decodeBase58(encoded)
	if err != nil {
		return nil, fmt.Errorf("delegation: decode did:key: %w", err)
	}
	if len(payload) != len(ed25519PubPrefix)+ed25519.PublicKeySize ||
		payload[0] != ed25519PubPrefix[0] || payload[1] != ed25519PubPrefix[1] {
		return nil, errors.New("delegation: did:key is not an ed25519 key")
	}
	return ed25519.PublicKey(payload[len(ed25519PubPrefix):]), nil
}

func encodeBase58(input []byte) string {
	num := new(big.Int).SetBytes(input)
	base := big.NewInt(58)
	mod := new(big.Int)

	var out []byte
	for num.Sign() > 0 {
		num.DivMod(num, base, mod)
		out = append(out, base58Alphabet[mod.Int64()])
	}
	for _, b := range input {
		if b != 0 {
			break
		}
		out = append(out, base58Alphabet[0])
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return string(out)
}

func decodeBase58(input string) ([]byte, error) {
	num := big.NewInt(0)
	base := big.NewInt(58)
	for _, r := range input {
		idx := strings.IndexRune(base58Alphabet, r)
		if idx < 0 {
			return nil, fmt.Errorf("invalid base58 character %q", r)
		}
		num.Mul(num, base)
		num.Add(num, big.NewInt(int64(idx)))
	}

	decoded := num.Bytes()
	leading := 0
	for _, r := range input {
		if r != rune(base58Alphabet[0]) {
			break
		}
		leading++
	}
	return append(make([]byte, leading), decoded...), nil
}
