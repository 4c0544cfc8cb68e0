package sentiment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	cases := map[string]int8{
		"Laba BBCA naik 10 persen":          1,
		"Saham anjlok, investor rugi":       -1,
		"Laba naik meski utang meningkat":   1,
		"Rapat umum pemegang saham digelar": 0,
		"Laba turun":                        0,
		"Harga minyak jatuh akibat krisis":  -1,
	}
	for text, want := range cases {
		assert.Equal(t, want, Default.Score(text), text)
	}
}
