package utils

import (
	"crypto/rand"
	"encoding/json"
	"math/big"
)

func MarshalStruct(input interface{}) (string, error) {
	bytes, err := json.Marshal(input)
	return string(bytes), err
}

// Shortens s to at most n runes, appending "..." if it was cut.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

func ContainsString(s []string, str string) bool {
	for _, st := range s {
		if st == str {
			return true
		}
	}
	return false
}

// Returns a uniformly distributed random int in [0, n). Panics if n <= 0.
func RandomInt(n int) int {
	idx, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic(err)
	}
	return int(idx.Int64())
}
