package importers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCleanField(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`"Dune"`, "Dune"},
		{`'Dune'`, "Dune"},
		{`  Dune  `, "Dune"},
		{`"  Dune "`, "Dune"},
		{`""Dune""`, `"Dune"`},
		{`"Dune`, "Dune"},
		{`Dune'`, "Dune"},
		{`"`, ""},
		{``, ""},
		{`O'Brien`, "O'Brien"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanField(tt.in), "CleanField(%q)", tt.in)
	}
}

func TestParseLeadingInt(t *testing.T) {
	assert.Equal(t, 412, ParseLeadingInt("412"))
	assert.Equal(t, 412, ParseLeadingInt(" 412 pages"))
	assert.Equal(t, 3, ParseLeadingInt("3.9"))
	assert.Equal(t, -2, ParseLeadingInt("-2"))
	assert.Equal(t, 0, ParseLeadingInt(""))
	assert.Equal(t, 0, ParseLeadingInt("n/a"))
	assert.Equal(t, 0, ParseLeadingInt("99999999999999999999999"))
}

func TestParseLeadingFloat(t *testing.T) {
	assert.Equal(t, 4.2, ParseLeadingFloat("4.2"))
	assert.Equal(t, 4.0, ParseLeadingFloat("4."))
	assert.Equal(t, 0.5, ParseLeadingFloat(".5"))
	assert.Equal(t, 3.91, ParseLeadingFloat("3.91 avg"))
	assert.Equal(t, 0.0, ParseLeadingFloat(""))
	assert.Equal(t, 0.0, ParseLeadingFloat("abc"))
}

func TestBuildDate(t *testing.T) {
	tests := []struct {
		name          string
		y, m, d, want string
	}{
		{"valid", "1987", "01", "12", "Mon, 12 Jan 1987 00:00:00 GMT"},
		{"no padding", "2024", "2", "9", "Fri, 09 Feb 2024 00:00:00 GMT"},
		{"leap day", "2024", "02", "29", "Thu, 29 Feb 2024 00:00:00 GMT"},
		{"not a leap year", "2023", "02", "29", ""},
		{"month out of range", "2024", "13", "01", ""},
		{"day zero", "2024", "01", "00", ""},
		{"non numeric", "year", "01", "01", ""},
		{"empty", "", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildDate(tt.y, tt.m, tt.d))
		})
	}
}

func TestParseReadAt(t *testing.T) {
	tests := []struct {
		in     string
		want   time.Time
		wantOK bool
	}{
		{"Mon, 12 Jan 1987 00:00:00 GMT", time.Date(1987, 1, 12, 0, 0, 0, 0, time.UTC), true},
		{"Sat, 10 Feb 2024 00:00:00 -0800", time.Date(2024, 2, 10, 8, 0, 0, 0, time.UTC), true},
		{"Sat, 3 Feb 2024 10:00:00 +0000", time.Date(2024, 2, 3, 10, 0, 0, 0, time.UTC), true},
		{"2024-02-10T08:00:00Z", time.Date(2024, 2, 10, 8, 0, 0, 0, time.UTC), true},
		{"2024-02-10", time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), true},
		{"2024/02/10", time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), true},
		{"", time.Time{}, false},
		{"Invalid Date", time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseReadAt(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.True(t, tt.want.Equal(got), "got %s", got)
			}
		})
	}
}

func TestClamping(t *testing.T) {
	assert.Equal(t, 0, clampRating(-1))
	assert.Equal(t, 3, clampRating(3))
	assert.Equal(t, 5, clampRating(9))
	assert.Equal(t, 0, nonNegative(-5))
	assert.Equal(t, 0.0, nonNegative(-0.5))
	assert.Equal(t, 4.5, nonNegative(4.5))
}
