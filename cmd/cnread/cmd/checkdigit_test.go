package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckDigitCommand(t *testing.T) {
	out, _, err := execute(t, newTestApp(""), "checkdigit", "CSQU305438", "ttnu 865584-6", "MSCU1234566")
	require.NoError(t, err)
	assert.Equal(t, "CSQU305438\tCSQU3054383\nTTNU8655846\tvalid\nMSCU1234566\tvalid\n", out)
}

func TestCheckDigitCommand_Invalid(t *testing.T) {
	out, _, err := execute(t, newTestApp(""), "checkdigit", "TTNU8655840", "ABC", "XXXX0000000")
	assert.ErrorContains(t, err, "3 invalid code(s)")
	assert.Contains(t, out, "TTNU8655840\tinvalid: check digit mismatch")
	assert.Contains(t, out, "ABC\tinvalid: 3 characters, want 10 or 11")
	assert.Contains(t, out, "XXXX0000000\tinvalid")
}

func TestCheckDigitCommand_NoArgs(t *testing.T) {
	_, _, err := execute(t, newTestApp(""), "checkdigit")
	assert.Error(t, err)
}

func TestCheckDigitCommand_RejectsStrayCharacters(t *testing.T) {
	out, _, err := execute(t, newTestApp(""), "checkdigit", "CSQU3054$8", "CSQU30543$8", "csqu 3054-38")
	assert.ErrorContains(t, err, "2 invalid code(s)")
	assert.Contains(t, out, "CSQU3054$8\tinvalid: position 8: invalid character '$'")
	assert.Contains(t, out, "CSQU30543$8\tinvalid: malformed container code")
	assert.Contains(t, out, "CSQU305438\tCSQU3054383")
}
