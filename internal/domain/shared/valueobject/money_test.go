package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustMoney(t *testing.T, amount string, currency Currency) Money {
	t.Helper()
	m, err := NewMoneyFromString(amount, currency)
	require.NoError(t, err)
	return m
}

func TestNewMoney(t *testing.T) {
	t.Run("valid amount and currency", func(t *testing.T) {
		m, err := NewMoney(decimal.NewFromFloat(100.50), USD)

		require.NoError(t, err)
		assert.Equal(t, USD, m.Currency())
		assert.True(t, m.Amount().Equal(decimal.NewFromFloat(100.50)))
	})

	t.Run("empty currency rejected", func(t *testing.T) {
		_, err := NewMoney(decimal.NewFromInt(100), "")

		assert.ErrorContains(t, err, "currency cannot be empty")
	})
}

func TestNewMoneyFromString(t *testing.T) {
	t.Run("decimal string", func(t *testing.T) {
		m, err := NewMoneyFromString("123.45", USD)

		require.NoError(t, err)
		assert.True(t, m.Amount().Equal(decimal.NewFromFloat(123.45)))
	})

	t.Run("malformed string", func(t *testing.T) {
		_, err := NewMoneyFromString("not-a-number", USD)

		assert.Error(t, err)
	})
}

func TestZero(t *testing.T) {
	m := Zero(GBP)

	assert.True(t, m.IsZero())
	assert.Equal(t, GBP, m.Currency())
}

func TestMoneyAdd(t *testing.T) {
	t.Run("same currency", func(t *testing.T) {
		sum, err := mustMoney(t, "100.50", USD).Add(mustMoney(t, "50.25", USD))

		require.NoError(t, err)
		assert.True(t, sum.Amount().Equal(decimal.NewFromFloat(150.75)))
	})

	t.Run("currency mismatch", func(t *testing.T) {
		_, err := mustMoney(t, "100", USD).Add(mustMoney(t, "50", EUR))

		assert.ErrorContains(t, err, "different currencies")
	})
}

func TestMoneySubtract(t *testing.T) {
	t.Run("same currency", func(t *testing.T) {
		diff, err := mustMoney(t, "100.50", USD).Subtract(mustMoney(t, "50.25", USD))

		require.NoError(t, err)
		assert.True(t, diff.Amount().Equal(decimal.NewFromFloat(50.25)))
	})

	t.Run("currency mismatch", func(t *testing.T) {
		_, err := mustMoney(t, "100", USD).Subtract(mustMoney(t, "50", EUR))

		assert.Error(t, err)
	})
}

func TestMoneyRound(t *testing.T) {
	assert.Equal(t, "100.46", mustMoney(t, "100.456", USD).Round(2).StringFixed(2))
}

func TestMoneyEquals(t *testing.T) {
	assert.True(t, mustMoney(t, "100", USD).Equals(mustMoney(t, "100.00", USD)))
	assert.False(t, mustMoney(t, "100", USD).Equals(mustMoney(t, "50", USD)))
	assert.False(t, mustMoney(t, "100", USD).Equals(mustMoney(t, "100", EUR)))
}

func TestMoneyString(t *testing.T) {
	assert.Equal(t, "123.45 USD", mustMoney(t, "123.45", USD).String())
}

func TestMoneyJSON(t *testing.T) {
	t.Run("marshal keeps amount as string", func(t *testing.T) {
		data, err := json.Marshal(mustMoney(t, "99.99", USD))

		require.NoError(t, err)
		assert.JSONEq(t, `{"amount":"99.99","currency":"USD"}`, string(data))
	})

	t.Run("unmarshal", func(t *testing.T) {
		var m Money
		err := json.Unmarshal([]byte(`{"amount":"123.45","currency":"EUR"}`), &m)

		require.NoError(t, err)
		assert.Equal(t, EUR, m.Currency())
		assert.True(t, m.Amount().Equal(decimal.NewFromFloat(123.45)))
	})

	t.Run("unmarshal bad amount", func(t *testing.T) {
		var m Money
		err := json.Unmarshal([]byte(`{"amount":"??","currency":"EUR"}`), &m)

		assert.Error(t, err)
	})
}

func TestMoneyScan(t *testing.T) {
	t.Run("string", func(t *testing.T) {
		var m Money
		require.NoError(t, m.Scan("123.45"))

		assert.True(t, m.Amount().Equal(decimal.NewFromFloat(123.45)))
		assert.Equal(t, DefaultCurrency, m.Currency())
	})

	t.Run("bytes", func(t *testing.T) {
		var m Money
		require.NoError(t, m.Scan([]byte("99.99")))

		assert.True(t, m.Amount().Equal(decimal.NewFromFloat(99.99)))
	})

	t.Run("nil becomes zero", func(t *testing.T) {
		var m Money
		require.NoError(t, m.Scan(nil))

		assert.True(t, m.IsZero())
	})

	t.Run("unsupported type", func(t *testing.T) {
		var m Money
		assert.Error(t, m.Scan(12345))
	})
}

func TestMoneyValue(t *testing.T) {
	val, err := mustMoney(t, "123.45", USD).Value()

	require.NoError(t, err)
	assert.Equal(t, "123.45", val)
}
