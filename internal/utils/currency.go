// internal/utils/currency.go
package utils

import "fmt"

// FormatMinorUnits renders an amount in minor currency units as "X.YY".
func FormatMinorUnits(pennies int64) string {
	sign := ""
	if pennies < 0 {
		sign = "-"
		pennies = -pennies
	}
	return fmt.Sprintf("%s%d.%02d", sign, pennies/100, pennies%100)
}
