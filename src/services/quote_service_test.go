package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSetQuoteValidation(t *testing.T) {
	svc := NewQuoteService()

	t.Run("blank symbol rejected", func(t *testing.T) {
		_, err := svc.SetQuote(1, "   ", decimal.NewFromInt(10))
		assert.ErrorIs(t, err, ErrInvalidQuoteSymbol)
	})

	t.Run("empty symbol rejected", func(t *testing.T) {
		_, err := svc.SetQuote(1, "", decimal.NewFromInt(10))
		assert.ErrorIs(t, err, ErrInvalidQuoteSymbol)
	})

	t.Run("zero price rejected", func(t *testing.T) {
		_, err := svc.SetQuote(1, "AAPL", decimal.Zero)
		assert.ErrorIs(t, err, ErrInvalidQuotePrice)
	})

	t.Run("negative price rejected", func(t *testing.T) {
		_, err := svc.SetQuote(1, "AAPL", decimal.NewFromInt(-3))
		assert.ErrorIs(t, err, ErrInvalidQuotePrice)
	})
}
