package domain

// Currency identifies what a bet is denominated in. All business logic runs
// on the currency's smallest unit; conversion from human-readable amounts
// happens once at the HTTP boundary.
type Currency string

const (
	CurrencySOL Currency = "SOL"
)

// currencyDecimals maps a currency to how many smallest units make one whole
// unit. SOL is tracked in lamports.
var currencyDecimals = map[Currency]int64{
	CurrencySOL: 1_000_000_000,
}

// Supported reports whether the currency has a known smallest-unit scale.
func (c Currency) Supported() bool {
	_, ok := currencyDecimals[c]
	return ok
}

// UnitsPerWhole returns how many smallest units make one whole unit of the
// currency (lamports per SOL).
func (c Currency) UnitsPerWhole() int64 {
	return currencyDecimals[c]
}

// ToSmallestUnit converts a human-readable amount to smallest units.
func (c Currency) ToSmallestUnit(amount float64) int64 {
	return int64(amount * float64(c.UnitsPerWhole()))
}

// FromSmallestUnit converts smallest units to a human-readable amount.
func (c Currency) FromSmallestUnit(units int64) float64 {
	return float64(units) / float64(c.UnitsPerWhole())
}
