package bitcoin

import "testing"

func TestValidAddress(t *testing.T) {
	valid := []string{
		"bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq",
		"bc1qw508d6qejxtdg4y5r3zarvary0c5xw7kv8f3t4",
		"1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa",
		"1BvBMSEYstWetqTFn5Au4m4GFg7xJaNVN2",
		"3J98t1WpEZ73CNmQviecrnyiWrnqRhWNLy",
	}
	for _, addr := range valid {
		if !ValidAddress(addr) {
			t.Errorf("expected %q to be valid", addr)
		}
	}

	invalid := []string{
		"",
		"bc1",
		"2J98t1WpEZ73CNmQviecrnyiWrnqRhWNLy",        // wrong prefix
		"1A1zP1eP5QGefi2DMPTfTL5SLmv7Divf0a",        // base58 excludes 0
		"1OO0Il1eP5QGefi2DMPTfTL5SLmv7DivfNa",       // ambiguous characters
		"bc1QAR0SRRR7XFKVY5L643LYDNW9RE59GTZZWF5MDQ", // bech32 is lowercase
		"bc1qbio",          // too short
		"1shortaddr",       // too short
		"0x742d35Cc6634C0532925a3b844Bc454e4438f44e", // not a bitcoin address
	}
	for _, addr := range invalid {
		if ValidAddress(addr) {
			t.Errorf("expected %q to be rejected", addr)
		}
	}
}
