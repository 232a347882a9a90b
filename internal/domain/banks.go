package domain

import "strings"

// UnknownBank is the display name used for URLs that match no known
// bank. Unrecognized URLs never fail a run; they fall through to the
// generic extractor.
const UnknownBank = "Unknown Bank"

// Bank identifies a supported bank site. The ID is the stable strategy
// key; the URL is only used to recognize the bank, never as a key.
type Bank struct {
	// ID is the stable identifier extraction strategies register under.
	ID string
	// DisplayName is the normalized bank name stored on promotions.
	DisplayName string
}

// knownBanks maps URL substrings to bank identities. Matching is
// substring-based so query-string or path changes don't break
// recognition.
var knownBanks = []struct {
	match string
	bank  Bank
}{
	{"bancociudad", Bank{ID: "bancociudad", DisplayName: "Banco Ciudad"}},
	{"bbva", Bank{ID: "bbva", DisplayName: "BBVA"}},
	{"galicia", Bank{ID: "galicia", DisplayName: "Banco Galicia"}},
	{"semananacion", Bank{ID: "nacion", DisplayName: "Banco Nación"}},
}

// BankFromURL resolves the bank identity for a source URL. URLs that
// match no known bank return a zero-ID Bank with the UnknownBank
// display name.
func BankFromURL(url string) Bank {
	for _, kb := range knownBanks {
		if strings.Contains(url, kb.match) {
			return kb.bank
		}
	}
	return Bank{DisplayName: UnknownBank}
}
