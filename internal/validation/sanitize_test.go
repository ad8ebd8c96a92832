package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeText(t *testing.T) {
	tests := map[string]string{
		"plain":                         "bought the dip",
		"  padded  ":                    "padded",
		"BTC & ETH":                     "BTC & ETH",
		"<b>bold</b>":                   "bold",
		"<script>alert(1)</script>note": "note",
		"bell\x07char":                  "bellchar",
	}
	for in, want := range tests {
		assert.Equal(t, want, SanitizeText(in), in)
	}
}
