package postgres

//nolint:revive
import (
	"fmt"
	"net"
	"net/url"
	"time"

	"hallbook/config"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

const (
	postgresMaxIdleConnection = 10
	postgresMaxOpenConnection = 10
	postgresConnMaxLifetime   = 30 * time.Minute
)

// Connection holds the read replica and the primary. Bookings are decided on
// Write so row locks and the update share one connection.
type Connection struct {
	Read  *sqlx.DB
	Write *sqlx.DB
}

// Target is one postgres endpoint.
type Target struct {
	Name     string
	Host     string
	Port     string
	Username string
	Password string
	Database string
	SSLMode  string
	Timezone string
}

func New(cfg *config.Config) *Connection {
	pg := cfg.DB.Postgres

	return &Connection{
		Read: Connect(Target{
			Name:     "read",
			Host:     pg.Read.Host,
			Port:     pg.Read.Port,
			Username: pg.Read.Username,
			Password: pg.Read.Password,
			Database: pg.Prefix + pg.Read.Name,
			SSLMode:  pg.Read.SSLMode,
			Timezone: pg.Read.Timezone,
		}, pg.MaxRetry, pg.RetryWaitTime),
		Write: Connect(Target{
			Name:     "write",
			Host:     pg.Write.Host,
			Port:     pg.Write.Port,
			Username: pg.Write.Username,
			Password: pg.Write.Password,
			Database: pg.Prefix + pg.Write.Name,
			SSLMode:  pg.Write.SSLMode,
			Timezone: pg.Write.Timezone,
		}, pg.MaxRetry, pg.RetryWaitTime),
	}
}

// DSN renders the target as a lib/pq connection URL.
func (t Target) DSN() string {
	sslMode := t.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	params := url.Values{}
	params.Set("sslmode", sslMode)

	// sent to the server as the session TimeZone
	if t.Timezone != "" {
		params.Set("timezone", t.Timezone)
	}

	dsn := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(t.Username, t.Password),
		Host:     net.JoinHostPort(t.Host, t.Port),
		Path:     t.Database,
		RawQuery: params.Encode(),
	}

	return dsn.String()
}

// Connect dials the target until it answers or maxRetry attempts are spent.
// Exhausting the retries is fatal.
func Connect(target Target, maxRetry, waitSeconds int) *sqlx.DB {
	maxRetry = max(maxRetry, 1)

	var lastErr error

	for attempt := range maxRetry {
		db, err := sqlx.Connect("postgres", target.DSN())
		if err == nil {
			db.SetMaxIdleConns(postgresMaxIdleConnection)
			db.SetMaxOpenConns(postgresMaxOpenConnection)
			db.SetConnMaxLifetime(postgresConnMaxLifetime)

			log.Info().
				Str("name", target.Name).
				Str("host", target.Host).
				Str("port", target.Port).
				Str("database", target.Database).
				Msg("Connected to database")

			return db
		}

		lastErr = err

		log.Error().
			Err(err).
			Str("name", target.Name).
			Str("host", target.Host).
			Int("attempt", attempt+1).
			Msg("Failed connecting to database, retrying")

		time.Sleep(time.Duration(waitSeconds) * time.Second)
	}

	log.Fatal().Err(fmt.Errorf("connect %s database: %w", target.Name, lastErr)).Msg("Giving up on database")

	return nil
}
