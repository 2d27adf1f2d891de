package model_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/carhive/rental-service/internal/model"
	"github.com/stretchr/testify/require"
)

func TestDateRange_Overlaps(t *testing.T) {
	t.Parallel()
	rng := func(s, e string) model.DateRange {
		start, err := model.ParseDate(s)
		require.NoError(t, err)
		end, err := model.ParseDate(e)
		require.NoError(t, err)
		return model.DateRange{Start: start, End: end}
	}

	var tests = []struct {
		name string
		a, b model.DateRange
		want bool
	}{
		{
			name: "nested",
			a:    rng("2024-01-10", "2024-01-15"),
			b:    rng("2024-01-12", "2024-01-14"),
			want: true,
		},
		{
			name: "partial overlap",
			a:    rng("2024-01-01", "2024-01-05"),
			b:    rng("2024-01-04", "2024-01-10"),
			want: true,
		},
		{
			name: "identical single day",
			a:    rng("2024-01-01", "2024-01-01"),
			b:    rng("2024-01-01", "2024-01-01"),
			want: true,
		},
		{
			name: "adjacent ranges conflict, no same-day turnover",
			a:    rng("2024-01-01", "2024-01-05"),
			b:    rng("2024-01-05", "2024-01-10"),
			want: true,
		},
		{
			name: "one day apart",
			a:    rng("2024-01-01", "2024-01-04"),
			b:    rng("2024-01-05", "2024-01-10"),
			want: false,
		},
		{
			name: "disjoint",
			a:    rng("2024-01-01", "2024-01-05"),
			b:    rng("2024-02-01", "2024-02-05"),
			want: false,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, tt.a.Overlaps(tt.b))
			require.Equal(t, tt.want, tt.b.Overlaps(tt.a))
		})
	}
}

func TestDateRange_Valid(t *testing.T) {
	t.Parallel()
	require.True(t, model.DateRange{
		Start: model.NewDate(2024, time.January, 1),
		End:   model.NewDate(2024, time.January, 1),
	}.Valid())
	require.True(t, model.DateRange{
		Start: model.NewDate(2024, time.January, 1),
		End:   model.NewDate(2024, time.January, 2),
	}.Valid())
	require.False(t, model.DateRange{
		Start: model.NewDate(2024, time.January, 2),
		End:   model.NewDate(2024, time.January, 1),
	}.Valid())
}

func TestDate_JSON(t *testing.T) {
	t.Parallel()
	d := model.NewDate(2024, time.March, 7)
	data, err := json.Marshal(d)
	require.NoError(t, err)
	require.Equal(t, `"2024-03-07"`, string(data))

	var got model.Date
	require.NoError(t, json.Unmarshal(data, &got))
	require.True(t, got.Equal(d.Time))

	require.Error(t, json.Unmarshal([]byte(`"07.03.2024"`), &got))
}
