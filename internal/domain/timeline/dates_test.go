package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDate(t *testing.T) {
	valid := time.Date(2020, 2, 29, 15, 4, 5, 0, time.UTC)
	var nilTime *time.Time
	var nilString *string
	s := "2021-07-04"

	tests := []struct {
		name   string
		in     any
		wantOK bool
		want   time.Time
	}{
		{name: "iso date string", in: "2020-01-01", wantOK: true, want: day(2020, 1, 1)},
		{name: "string pointer", in: &s, wantOK: true, want: day(2021, 7, 4)},
		{name: "time value", in: valid, wantOK: true, want: valid},
		{name: "time pointer", in: &valid, wantOK: true, want: valid},
		{name: "garbage", in: "not-a-date", wantOK: false},
		{name: "blank", in: "  ", wantOK: false},
		{name: "nil", in: nil, wantOK: false},
		{name: "nil time pointer", in: nilTime, wantOK: false},
		{name: "nil string pointer", in: nilString, wantOK: false},
		{name: "zero time", in: time.Time{}, wantOK: false},
		{name: "number", in: 2020, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseDate(tt.in, time.UTC)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.True(t, tt.want.Equal(got), "got %v", got)
			}
		})
	}
}

func TestDayBoundaries(t *testing.T) {
	in := time.Date(2020, 5, 1, 13, 45, 12, 500, time.UTC)

	assert.Equal(t, time.Date(2020, 5, 1, 0, 0, 0, 0, time.UTC), StartOfDay(in))
	assert.Equal(t, time.Date(2020, 5, 1, 23, 59, 59, 999000000, time.UTC), EndOfDay(in))
	assert.Equal(t, "20200501", dayKey(in))
}

func TestDayBoundaries_KeepLocation(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*60*60)
	in := time.Date(2020, 5, 1, 1, 0, 0, 0, loc)

	assert.Equal(t, loc, StartOfDay(in).Location())
	assert.Equal(t, 1, StartOfDay(in).Day())
}
