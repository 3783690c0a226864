package cart

import (
	"crypto/rand"
	"math/big"

	"github.com/pkg/errors"
)

const (
	TrackingPrefix   = "FPI-"
	trackingLen      = 6
	trackingAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// NewTrackingCode returns a code such as "FPI-7QX2KD".
func NewTrackingCode() (string, error) {
	buf := make([]byte, trackingLen)
	max := big.NewInt(int64(len(trackingAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", errors.Wrap(err, "generate tracking code")
		}
		buf[i] = trackingAlphabet[n.Int64()]
	}
	return TrackingPrefix + string(buf), nil
}
