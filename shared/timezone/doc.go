// Package timezone pins every timestamp the service renders or stamps to
// APP_TIMEZONE (an IANA name such as "Asia/Jakarta"). Booking windows are kept
// as absolute instants; only presentation and audit stamps use the local zone.
package timezone
