package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vilaca/sprint-api/internal/apperr"
)

func TestParseDDMMYYYY_Valid(t *testing.T) {
	tests := []struct {
		value string
		want  Date
	}{
		{"07012026", Date{2026, time.January, 7}},
		{"01011970", Date{1970, time.January, 1}},
		{"31122025", Date{2025, time.December, 31}},
		{"29022024", Date{2024, time.February, 29}}, // leap day
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, err := ParseDDMMYYYY(tt.value, "date")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDDMMYYYY_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"empty", ""},
		{"too short", "0701202"},
		{"too long", "070120266"},
		{"non-digit", "07a12026"},
		{"month zero", "07002026"},
		{"month thirteen", "07132026"},
		{"day zero", "00012026"},
		{"day overflow", "32012026"},
		{"non-leap feb 29", "29022026"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDDMMYYYY(tt.value, "date")
			require.Error(t, err)
			assert.True(t, apperr.Is(err, apperr.CodeValidation), "expected validation error, got %v", err)
		})
	}
}

func TestParseDDMMYYYY_ErrorNamesField(t *testing.T) {
	_, err := ParseDDMMYYYY("bad", "start_date")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start_date")
}

func TestParseJiraTime(t *testing.T) {
	t.Run("jira millisecond format with offset", func(t *testing.T) {
		got := ParseJiraTime("2026-01-07T10:00:00.000+05:30")
		require.NotNil(t, got)
		assert.Equal(t, 2026, got.Year())
		assert.Equal(t, time.January, got.Month())
		assert.Equal(t, 7, got.Day())
		_, offset := got.Zone()
		assert.Equal(t, 5*3600+30*60, offset)
	})

	t.Run("zulu", func(t *testing.T) {
		got := ParseJiraTime("2026-01-01T00:00:00Z")
		require.NotNil(t, got)
		assert.True(t, got.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))
	})

	t.Run("empty is nil", func(t *testing.T) {
		assert.Nil(t, ParseJiraTime(""))
	})

	t.Run("malformed is nil", func(t *testing.T) {
		assert.Nil(t, ParseJiraTime("not-a-timestamp"))
	})
}
