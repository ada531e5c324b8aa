package money

import (
	"math"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// CurrencySuffix follows every formatted amount.
const CurrencySuffix = " ₪"

// he-IL and en share "," grouping and "." decimals.
var printer = message.NewPrinter(language.English)

// Format renders a shekel amount with grouped thousands and the shekel sign.
// Whole amounts have no decimals ("1,000 ₪"); anything else has exactly two
// ("1.50 ₪").
func Format(shekels float64) string {
	if math.IsNaN(shekels) || math.IsInf(shekels, 0) {
		return strconv.FormatFloat(shekels, 'f', -1, 64) + CurrencySuffix
	}
	return formatAgorot(ToMinorUnits(shekels))
}

func formatAgorot(a Agorot) string {
	if a%AgorotPerShekel == 0 {
		return printer.Sprintf("%d", int64(a)/AgorotPerShekel) + CurrencySuffix
	}
	return printer.Sprintf("%.2f", ToMajorUnits(a)) + CurrencySuffix
}
