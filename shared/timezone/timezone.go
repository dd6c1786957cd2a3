package timezone

import (
	"sync/atomic"
	"time"

	"hallbook/config"

	"github.com/rs/zerolog/log"
)

const defaultZone = "UTC"

var location atomic.Pointer[time.Location]

func init() {
	Set(config.Get().App.Timezone)
}

// Set switches the application location. Unknown or empty names leave the
// application on UTC.
func Set(name string) *time.Location {
	if name == "" {
		name = defaultZone
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Error().Err(err).Str("timezone", name).Msg("unknown timezone, falling back to UTC")

		loc = time.UTC
	}

	location.Store(loc)

	return loc
}

func current() *time.Location {
	if loc := location.Load(); loc != nil {
		return loc
	}

	return time.UTC
}

// Now returns the wall clock in the application location.
func Now() time.Time {
	return time.Now().In(current())
}

func Format(t time.Time, layout string) string {
	return t.In(current()).Format(layout)
}

// FormatPtr formats t, returning nil when t is unset.
func FormatPtr(t *time.Time, layout string) *string {
	if t == nil {
		return nil
	}

	formatted := Format(*t, layout)

	return &formatted
}
