package pairing

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"time"
)

const base36 = "abcdefghijklmnopqrstuvwxyz0123456789"

// NewTempPairID returns a legacy style id "pair_temp_<unix-ms>_<8 chars>".
// Older clients still address pairs by it.
func NewTempPairID() (string, error) {
	suffix, err := randomSuffix(8)
	if err != nil {
		return "", err
	}
	return "pair_temp_" + strconv.FormatInt(time.Now().UnixMilli(), 10) + "_" + suffix, nil
}

func randomSuffix(n int) (string, error) {
	out := make([]byte, n)
	for i := range out {
		k, err := rand.Int(rand.Reader, big.NewInt(int64(len(base36))))
		if err != nil {
			return "", err
		}
		out[i] = base36[k.Int64()]
	}
	return string(out), nil
}
