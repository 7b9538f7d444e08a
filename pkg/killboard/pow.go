package killboard

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrProofOfWorkExhausted is returned when no nonce below the search limit
// satisfies the difficulty.
var ErrProofOfWorkExhausted = errors.New("proof of work exhausted")

// maxNonce bounds the nonce search space.
const maxNonce = 1_000_000

// ProofOfWork authorises one stats request. The verifier recomputes
// SHA256(id + "|" + nonce + "|" + ts) and checks the hex prefix, accepting a
// timestamp within ±300 s of its own clock.
type ProofOfWork struct {
	Nonce     int64  `json:"nonce"`
	Timestamp int64  `json:"ts"`
	Hash      string `json:"hash"`
}

// powDigest computes the lowercase hex SHA-256 of the literal wire
// concatenation id|nonce|ts.
func powDigest(id int32, nonce, ts int64) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d|%d|%d", id, nonce, ts)))
	return hex.EncodeToString(sum[:])
}

// GenerateProof finds the smallest non-negative nonce whose digest carries
// the required number of leading zero hex characters. difficultyBits is
// rounded up to whole nibbles. The timestamp is fixed at call start.
func GenerateProof(ctx context.Context, id int32, difficultyBits int) (*ProofOfWork, error) {
	ts := time.Now().Unix()
	prefix := strings.Repeat("0", (difficultyBits+3)/4)

	for nonce := int64(0); nonce <= maxNonce; nonce++ {
		if nonce%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		digest := powDigest(id, nonce, ts)
		if strings.HasPrefix(digest, prefix) {
			return &ProofOfWork{Nonce: nonce, Timestamp: ts, Hash: digest}, nil
		}
	}

	return nil, ErrProofOfWorkExhausted
}
