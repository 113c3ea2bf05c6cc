package scoring

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecimalString(t *testing.T) {
	require.Equal(t, "70.00", DecimalFromFloat(70).String())
	require.Equal(t, "56.01", DecimalFromFloat(56.005).String())
	require.Equal(t, "0.00", DecimalFromFloat(0).String())
	require.Equal(t, "-0.50", DecimalFromFloat(-0.5).String())
	require.Equal(t, "-12.34", DecimalFromFloat(-12.34).String())
	require.Equal(t, "120.00", DecimalFromFloat(120).String())
}

func TestDecimalRoundingHalfAwayFromZero(t *testing.T) {
	require.Equal(t, "2.35", DecimalFromFloat(2.345).String())
	require.Equal(t, "66.67", DecimalFromFloat(66.66666).String())
}

func TestDecimalJSONRoundTrip(t *testing.T) {
	original := DecimalFromFloat(70.5)

	raw, err := json.Marshal(original)
	require.NoError(t, err)
	require.Equal(t, "70.50", string(raw))

	var decoded Decimal
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Equal(t, original, decoded)
}

func TestDecimalScan(t *testing.T) {
	var d Decimal

	require.NoError(t, d.Scan("70.00"))
	require.Equal(t, DecimalFromFloat(70), d)

	require.NoError(t, d.Scan([]byte("56.01")))
	require.Equal(t, DecimalFromFloat(56.01), d)

	require.NoError(t, d.Scan(float64(33.33)))
	require.Equal(t, DecimalFromFloat(33.33), d)

	require.NoError(t, d.Scan(int64(42)))
	require.Equal(t, DecimalFromFloat(42), d)

	require.Error(t, d.Scan(struct{}{}))
}

func TestDecimalValueRoundTrip(t *testing.T) {
	original := DecimalFromFloat(87.65)

	value, err := original.Value()
	require.NoError(t, err)

	var decoded Decimal
	require.NoError(t, decoded.Scan(value))
	require.Equal(t, original, decoded)
}

func TestParseDecimal(t *testing.T) {
	parsed, err := ParseDecimal(" 12.5 ")
	require.NoError(t, err)
	require.Equal(t, DecimalFromFloat(12.5), parsed)

	_, err = ParseDecimal("")
	require.Error(t, err)

	_, err = ParseDecimal("abc")
	require.Error(t, err)
}
