package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCents_DollarString(t *testing.T) {
	assert.Equal(t, "12.34", Cents(1234).DollarString())
	assert.Equal(t, "0.05", Cents(5).DollarString())
	assert.Equal(t, "-3.00", Cents(-300).DollarString())
}

func TestCentsFromDecimal_Rounds(t *testing.T) {
	assert.Equal(t, Cents(1235), CentsFromDecimal(decimal.RequireFromString("12.345")))
	assert.Equal(t, Cents(30000), CentsFromDecimal(decimal.NewFromInt(300)))
}

func TestParseDollars(t *testing.T) {
	c, err := ParseDollars("60.00")
	require.NoError(t, err)
	assert.Equal(t, Cents(6000), c)

	c, err = ParseDollars("12.340")
	require.NoError(t, err)
	assert.Equal(t, Cents(1234), c)

	_, err = ParseDollars("sixty")
	assert.Error(t, err)

	_, err = ParseDollars("10.005")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "more than two decimal places")
}

func TestCents_JSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Amount Cents `json:"amount"`
	}{Amount: 9950})
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"99.50"}`, string(data))

	var in struct {
		A Cents `json:"a"`
		B Cents `json:"b"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"1.10","b":2.5}`), &in))
	assert.Equal(t, Cents(110), in.A)
	assert.Equal(t, Cents(250), in.B)

	assert.Error(t, json.Unmarshal([]byte(`{"a":"1.105","b":1}`), &in))
	assert.Error(t, json.Unmarshal([]byte(`{"a":"1.10","b":0.001}`), &in))
}
