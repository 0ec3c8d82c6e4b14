package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"
)

const numberAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// GenerateOrderNumber builds a human-facing order number of the form
// <PREFIX>-<TIME-TOKEN>-<RANDOM-TOKEN>. The time token is the current UTC
// unix-millisecond clock in base36; the random token carries 6 characters of
// cryptographic entropy. Uniqueness is backstopped by the orders.number
// unique index.
func GenerateOrderNumber(prefix string) string {
	now := time.Now().UTC()

	timeToken := strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))

	random := make([]byte, 6)
	for i := range random {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(numberAlphabet))))
		if err != nil {
			// fallback: time-based entropy
			n = big.NewInt(now.UnixNano() % int64(len(numberAlphabet)))
		}
		random[i] = numberAlphabet[n.Int64()]
	}

	return fmt.Sprintf("%s-%s-%s", prefix, timeToken, random)
}
