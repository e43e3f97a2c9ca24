package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectDateOrder(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  DateOrder
	}{
		{"iso dash", "2024-12-25", OrderISO},
		{"iso slash", "2024/12/25", OrderISO},
		{"day first forced", "25/12/2024", OrderDayFirst},
		{"month first forced", "12/25/2024", OrderMonthFirst},
		{"ambiguous", "01/02/2024", OrderAmbiguous},
		{"two components only", "12/2024", OrderUnknown},
		{"not a date", "hello", OrderUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectDateOrder(tt.input))
		})
	}
}

func TestParseDate(t *testing.T) {
	date := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		name     string
		input    string
		dayFirst bool
		want     time.Time
		wantErr  bool
	}{
		{"iso", "2024-12-25", true, date(2024, time.December, 25), false},
		{"iso with slashes", "2024/12/25", true, date(2024, time.December, 25), false},
		{"iso with time suffix", "2024-12-25 14:30:00", true, date(2024, time.December, 25), false},
		{"unambiguous day first", "25/12/2024", false, date(2024, time.December, 25), false},
		{"unambiguous month first", "12/25/2024", true, date(2024, time.December, 25), false},
		{"ambiguous resolved day first", "01/02/2024", true, date(2024, time.February, 1), false},
		{"ambiguous resolved month first", "01/02/2024", false, date(2024, time.January, 2), false},
		{"dashes day first", "25-12-2024", true, date(2024, time.December, 25), false},
		{"two digit year", "25/12/24", true, date(2024, time.December, 25), false},
		{"nonexistent day", "31/02/2024", true, time.Time{}, true},
		{"day out of range", "32/01/2024", true, time.Time{}, true},
		{"empty", "", true, time.Time{}, true},
		{"garbage", "not a date", true, time.Time{}, true},
		{"missing component", "12/2024", true, time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input, tt.dayFirst)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %s want %s", got, tt.want)
		})
	}
}

func TestParseDateErrorNamesInput(t *testing.T) {
	_, err := ParseDate("99/99/9999", true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "99/99/9999")
}
