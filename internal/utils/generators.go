package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

const ticketCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const ticketCodeLength = 10

// GenerateTicketCode produces a human-readable ticket code: a fixed prefix
// plus a 10-character suffix drawn from an alphabet without lookalike
// characters (no O/0, I/1). With 32^10 possible suffixes a collision is
// negligible; the unique column on ticket_code turns the residual case into
// a retryable conflict instead of a silent overwrite.
func GenerateTicketCode() string {
	suffix := make([]byte, ticketCodeLength)
	for i := range suffix {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(ticketCodeAlphabet))))
		if err != nil {
			// crypto/rand should never fail; fall back to a timestamp-derived index
			suffix[i] = ticketCodeAlphabet[time.Now().UnixNano()%int64(len(ticketCodeAlphabet))]
			continue
		}
		suffix[i] = ticketCodeAlphabet[n.Int64()]
	}
	return fmt.Sprintf("TKT-%s", suffix)
}
