package marketdata

import "strings"

// exchangeSuffix maps exchange prefixes (as entered by analysts, e.g. "SGX:D05")
// to the suffix the data API expects.
var exchangeSuffix = map[string]string{
	"SGX": "SI",
	"HKG": "HK",
	"TSE": "TO",
	"LON": "L",
}

// fallbackSuffixes are tried in order when a bare ticker with no exchange
// qualifier returns no data. Covers the international listings the report
// workflow sees most.
var fallbackSuffixes = []string{"SI", "HK", "TO", "L"}

// CandidateSymbols expands a user-entered ticker into the ordered list of
// symbols to probe against the data API. The first candidate that yields a
// valid quote wins.
func CandidateSymbols(ticker string) []string {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil
	}

	// Exchange-qualified form, e.g. "SGX:D05" or "HKG:700".
	if exchange, symbol, ok := strings.Cut(ticker, ":"); ok {
		symbol = strings.TrimSpace(symbol)
		if symbol == "" {
			return nil
		}
		if exchange == "NYSE" || exchange == "NASDAQ" {
			return []string{symbol}
		}
		if suffix, known := exchangeSuffix[exchange]; known {
			candidates := []string{symbol + "." + suffix}
			// Hong Kong numeric codes are zero-padded to four digits.
			if exchange == "HKG" && len(symbol) < 4 {
				padded := strings.Repeat("0", 4-len(symbol)) + symbol
				candidates = append(candidates, padded+"."+suffix)
			}
			return append(candidates, symbol)
		}
		return []string{symbol + "." + exchange, symbol}
	}

	// Already suffixed, e.g. "D05.SI".
	if strings.Contains(ticker, ".") {
		return []string{ticker}
	}

	candidates := []string{ticker}
	for _, suffix := range fallbackSuffixes {
		candidates = append(candidates, ticker+"."+suffix)
	}
	return candidates
}
