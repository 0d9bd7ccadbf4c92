package model

import "strings"

// Instruments are 6-char concatenated pair codes, e.g. "GBPUSD".
// Brokers quote them with a separator, e.g. "GBP_USD".

// ValidPair reports whether the pair is a 6-letter code.
func ValidPair(pair string) bool {
	if len(pair) != 6 {
		return false
	}
	for i := 0; i < len(pair); i++ {
		c := pair[i]
		if c < 'A' || c > 'Z' {
			return false
		}
	}
	return true
}

// InvertPair swaps base and quote: "GBPUSD" -> "USDGBP".
func InvertPair(pair string) string {
	if len(pair) != 6 {
		return pair
	}
	return pair[3:] + pair[:3]
}

// BrokerPair renders the underscore wire form: "GBPUSD" -> "GBP_USD".
func BrokerPair(pair string) string {
	if len(pair) != 6 {
		return pair
	}
	return pair[:3] + "_" + pair[3:]
}

// NormalizePair strips broker separators: "GBP_USD" -> "GBPUSD".
func NormalizePair(pair string) string {
	return strings.ToUpper(strings.NewReplacer("_", "", ".", "", "/", "").Replace(pair))
}
