package money

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestFrenchAmount(t *testing.T) {
	got := French.Amount(1234.5)
	assert.True(t, strings.HasSuffix(got, "€"), got)
	assert.Contains(t, got, "234,50")
	assert.NotContains(t, got, ".")
}

func TestAmountRoundsToCent(t *testing.T) {
	assert.Contains(t, French.Amount(48.996), "49,00")
	assert.Contains(t, French.Amount(-0.001), "0,00")
	assert.NotContains(t, French.Amount(-0.001), "-")
}

func TestEnglishNumber(t *testing.T) {
	assert.Equal(t, "1,234.50", NewFormatter(language.English).Number(1234.5))
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "10 %", French.Percent(10))
	assert.Contains(t, French.Percent(5.5), "5,5")
}

func TestCode(t *testing.T) {
	assert.Equal(t, "EUR", Code())
}
