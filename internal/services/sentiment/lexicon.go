// Package sentiment scores headlines with a keyword lexicon.
package sentiment

import "strings"

// Lexicon holds positive and negative keywords matched as lowercase substrings.
type Lexicon struct {
	Positive []string
	Negative []string
}

// Default is the Indonesian market-news lexicon.
var Default = Lexicon{
	Positive: []string{
		"laba", "naik", "untung", "akuisisi", "sukses", "optimis", "bullish",
		"ekspansi", "pertumbuhan", "meningkat", "positif", "inovasi", "efisiensi",
		"prospek cerah", "rekor", "tertinggi", "menguat", "surplus", "right issue", "buyback",
	},
	Negative: []string{
		"rugi", "turun", "anjlok", "boncos", "pesimis", "bearish", "lesu",
		"koreksi", "penurunan", "melemah", "negatif", "skandal", "gagal",
		"krisis", "utang", "defisit", "masalah", "risiko", "jatuh", "gugatan",
	},
}

// Score counts +1 for every positive keyword present and -1 for every
// negative one, and returns the sign of the total.
func (l Lexicon) Score(text string) int8 {
	text = strings.ToLower(text)
	total := 0
	for _, w := range l.Positive {
		if strings.Contains(text, w) {
			total++
		}
	}
	for _, w := range l.Negative {
		if strings.Contains(text, w) {
			total--
		}
	}
	switch {
	case total > 0:
		return 1
	case total < 0:
		return -1
	default:
		return 0
	}
}
