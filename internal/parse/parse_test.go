package parse

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMentions(t *testing.T) {
	testCases := []struct {
		name     string
		text     string
		expected []string
	}{
		{name: "two mentions", text: "please check @alice @bob", expected: []string{"alice", "bob"}},
		{name: "duplicates collapse", text: "@alice and again @alice", expected: []string{"alice"}},
		{name: "punctuation ends a name", text: "ping @carol, then @dave.", expected: []string{"carol", "dave"}},
		{name: "underscores and digits", text: "@user_42 done", expected: []string{"user_42"}},
		{name: "email-like text still matches", text: "mail me@example.com", expected: []string{"example"}},
		{name: "no mentions", text: "nothing to see", expected: nil},
		{name: "bare at sign", text: "meet @ noon", expected: nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Mentions(tc.text))
		})
	}
}

func TestDueDate(t *testing.T) {
	tehran, err := time.LoadLocation("Asia/Tehran")
	require.NoError(t, err)

	testCases := []struct {
		name      string
		raw       string
		loc       *time.Location
		expected  time.Time
		expectErr bool
	}{
		{
			name:     "RFC3339 keeps offset",
			raw:      "2026-03-01T10:00:00+02:00",
			loc:      tehran,
			expected: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
		},
		{
			name:     "naive is read in location",
			raw:      "2026-03-01 10:00:00",
			loc:      tehran,
			expected: time.Date(2026, 3, 1, 6, 30, 0, 0, time.UTC),
		},
		{
			name:     "nil location means UTC",
			raw:      "2026-03-01T10:00",
			loc:      nil,
			expected: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			name:     "date only",
			raw:      "2026-03-01",
			loc:      time.UTC,
			expected: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		{name: "empty", raw: " ", expectErr: true},
		{name: "garbage", raw: "tomorrow", expectErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DueDate(tc.raw, tc.loc)
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tc.expected.Equal(got), "got %s, want %s", got, tc.expected)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}
