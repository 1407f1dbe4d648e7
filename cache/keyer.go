package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"unicode"
)

// maxTypePrefix bounds the readable type name kept in a key. The hash alone
// identifies the pair, so the prefix may be shortened freely.
const maxTypePrefix = 64

// Keyer derives lookup keys from a resource type name and an object identity.
//
// Contract:
// - Determinism: same inputs must produce the same key across processes.
// - Isolation: keys must not depend on request state (locale, query, user).
// - Concurrency: implementations must be safe for concurrent use.
type Keyer interface {
	Key(typeName, id string) string
}

// DefaultKeyer generates SHA-256 based keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates a new default keyer.
func NewDefaultKeyer() *DefaultKeyer {
	return &DefaultKeyer{}
}

// Key generates a deterministic key.
// Format: norm:<typeName>:<hash>
// where hash is the first 32 hex characters of SHA-256(["typeName","id"]).
// Hashing the JSON pair keeps ("a:b","c") and ("a","b:c") apart.
// Control characters and '|' in the type name become '_' and the name is cut
// to 64 bytes, so every pair yields a key that passes ValidateKey.
func (k *DefaultKeyer) Key(typeName, id string) string {
	// Marshalling a pair of strings cannot fail.
	pair, _ := json.Marshal([2]string{typeName, id})
	hash := sha256.Sum256(pair)
	return "norm:" + typePrefix(typeName) + ":" + hex.EncodeToString(hash[:16])
}

func typePrefix(typeName string) string {
	p := strings.Map(func(r rune) rune {
		if r == '|' || unicode.IsControl(r) {
			return '_'
		}
		return r
	}, typeName)
	if len(p) > maxTypePrefix {
		p = strings.ToValidUTF8(p[:maxTypePrefix], "")
	}
	return p
}

// Ensure DefaultKeyer implements Keyer
var _ Keyer = (*DefaultKeyer)(nil)
