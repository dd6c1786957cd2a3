package timezone_test

import (
	"testing"
	"time"

	"hallbook/shared/timezone"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSet(t *testing.T) {
	t.Cleanup(func() { timezone.Set("") })

	tests := []struct {
		name string
		zone string
		want string
	}{
		{name: "empty falls back to utc", zone: "", want: "UTC"},
		{name: "known zone", zone: "Asia/Jakarta", want: "Asia/Jakarta"},
		{name: "unknown zone falls back to utc", zone: "Mars/Olympus", want: "UTC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc := timezone.Set(tt.zone)

			assert.Equal(t, tt.want, loc.String())
			assert.Equal(t, tt.want, timezone.Now().Location().String())
		})
	}
}

func TestFormat(t *testing.T) {
	t.Cleanup(func() { timezone.Set("") })

	start := time.Date(2026, 11, 2, 2, 0, 0, 0, time.UTC)

	timezone.Set("Asia/Jakarta")
	assert.Equal(t, "2026-11-02 09:00", timezone.Format(start, "2006-01-02 15:04"))

	assert.Nil(t, timezone.FormatPtr(nil, time.RFC3339))

	formatted := timezone.FormatPtr(&start, "15:04")
	require.NotNil(t, formatted)
	assert.Equal(t, "09:00", *formatted)
}
