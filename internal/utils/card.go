package utils

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// CardNumberLength is the fixed length of generated card numbers.
const CardNumberLength = 16

// GenerateCardNumber generates a random 16-digit card number.
// Uniqueness is not guaranteed; callers must check against storage.
func GenerateCardNumber() (string, error) {
	digits := make([]byte, CardNumberLength)
	if _, err := rand.Read(digits); err != nil {
		return "", fmt.Errorf("failed to generate random digits: %w", err)
	}

	var builder strings.Builder
	builder.Grow(CardNumberLength)
	for _, b := range digits {
		builder.WriteByte(b%10 + '0')
	}
	return builder.String(), nil
}

// MaskCardNumber masks a card number, leaving only the last four digits
// visible. Inputs shorter than four characters are returned unchanged.
func MaskCardNumber(cardNumber string) string {
	if len(cardNumber) < 4 {
		return cardNumber
	}
	return "**** **** **** " + cardNumber[len(cardNumber)-4:]
}

// LastFourDigits returns the trailing four characters of a card number.
func LastFourDigits(cardNumber string) string {
	if len(cardNumber) < 4 {
		return cardNumber
	}
	return cardNumber[len(cardNumber)-4:]
}
