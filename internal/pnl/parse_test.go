package pnl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Extraction
	}{
		{
			name: "labeled pnl with sign",
			text: "PNL: +45.2%",
			want: Extraction{PNLPercent: 45.2, HasPNL: true},
		},
		{
			name: "profit label without sign",
			text: "Profit 12%",
			want: Extraction{PNLPercent: 12, HasPNL: true},
		},
		{
			name: "loss with negative value",
			text: "Loss: -30 %",
			want: Extraction{PNLPercent: -30, HasPNL: true},
		},
		{
			name: "bare signed percent fallback",
			text: "$SOL long +120.5% nice trade",
			want: Extraction{TokenSymbol: "sol", PNLPercent: 120.5, HasPNL: true},
		},
		{
			name: "unsigned bare percent ignored",
			text: "up 3% today maybe",
			want: Extraction{},
		},
		{
			name: "cashtag symbol",
			text: "$bonk pnl: +80%",
			want: Extraction{TokenSymbol: "bonk", PNLPercent: 80, HasPNL: true},
		},
		{
			name: "symbol before entry",
			text: "wif entry: $1.25 exit: $2.50 pnl +100%",
			want: Extraction{
				TokenSymbol: "wif",
				EntryPrice:  1.25,
				ExitPrice:   2.5,
				PNLPercent:  100,
				HasPNL:      true,
				HasEntry:    true,
				HasExit:     true,
			},
		},
		{
			name: "entry price label variant",
			text: "Entry Price: 23.5 Exit Price: 19.1 PNL -18.7%",
			want: Extraction{
				EntryPrice: 23.5,
				ExitPrice:  19.1,
				PNLPercent: -18.7,
				HasPNL:     true,
				HasEntry:   true,
				HasExit:    true,
			},
		},
		{
			name: "stopword never a symbol",
			text: "the entry 5.0",
			want: Extraction{EntryPrice: 5, HasEntry: true},
		},
		{
			name: "ocr whitespace between sign and digits",
			text: "pnl: + 33.3 %",
			want: Extraction{PNLPercent: 33.3, HasPNL: true},
		},
		{
			name: "nothing useful",
			text: "gm gm have a great day",
			want: Extraction{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.text)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestExtractionFound(t *testing.T) {
	assert.False(t, (&Extraction{}).Found())
	assert.True(t, (&Extraction{HasPNL: true}).Found())
	assert.True(t, (&Extraction{TokenSymbol: "sol"}).Found())
}
