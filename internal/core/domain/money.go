package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of decimal places carried by every stored amount.
const MoneyScale = 2

var (
	ErrAmountNotPositive = errors.New("amount must be greater than zero")
	ErrAmountScale       = fmt.Errorf("amount must have at most %d decimal places", MoneyScale)

	daysRateDivisor = decimal.NewFromInt(36500) // percent (100) x days per year (365)
)

// ValidateAmount checks that amount is a positive value with at most two decimal places.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrAmountNotPositive
	}
	if !amount.Equal(amount.Truncate(MoneyScale)) {
		return ErrAmountScale
	}
	return nil
}

// FormatMoney renders amount with two decimals followed by the currency code.
func FormatMoney(amount decimal.Decimal, currency string) string {
	return amount.StringFixed(MoneyScale) + " " + currency
}

// BorrowingAmount returns how much of a debit exceeds the wallet's non-negative balance.
// Zero means the debit is fully covered.
func BorrowingAmount(balance, debit decimal.Decimal) decimal.Decimal {
	available := decimal.Max(balance, decimal.Zero)
	if debit.LessThanOrEqual(available) {
		return decimal.Zero
	}
	return debit.Sub(available)
}

// SimpleInterest computes amount x rate/100 x days/365, rounded half-up to two decimals.
func SimpleInterest(amount, ratePercent decimal.Decimal, days int) decimal.Decimal {
	return amount.Mul(ratePercent).Mul(decimal.NewFromInt(int64(days))).
		Div(daysRateDivisor).Round(MoneyScale)
}
