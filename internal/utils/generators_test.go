package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateTicketCodeFormat(t *testing.T) {
	code := GenerateTicketCode()

	assert.True(t, strings.HasPrefix(code, "TKT-"))
	assert.Equal(t, 4+ticketCodeLength, len(code))

	for _, r := range code[4:] {
		assert.Contains(t, ticketCodeAlphabet, string(r))
	}
}

func TestGenerateTicketCodeUniqueness(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		code := GenerateTicketCode()
		_, dup := seen[code]
		assert.False(t, dup, "duplicate code %s", code)
		seen[code] = struct{}{}
	}
}
