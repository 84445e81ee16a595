package identity

import (
	"crypto/rand"
	"math/big"

	"github.com/punchcard/backend/internal/models"
)

var alphabetLen = big.NewInt(int64(len(models.TokenAlphabet)))

// GenerateToken returns a random 6-character access token drawn from the
// 36-symbol alphabet. Uniqueness is the caller's responsibility.
func GenerateToken() (string, error) {
	buf := make([]byte, models.TokenLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", err
		}
		buf[i] = models.TokenAlphabet[n.Int64()]
	}
	return string(buf), nil
}
