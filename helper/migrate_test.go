package helper

import (
	"testing"

	"hallbook/config"

	"github.com/stretchr/testify/assert"
)

func TestConnectionString(t *testing.T) {
	tests := []struct {
		name   string
		modify func(cfg *config.Config)
		want   string
	}{
		{
			name: "defaults",
			want: "postgres://hallbook:secret@db:5432/hallbook?sslmode=disable",
		},
		{
			name: "prefix and migration table",
			modify: func(cfg *config.Config) {
				cfg.DB.Postgres.Prefix = "test_"
				cfg.DB.Postgres.MigrationTable = "schema_migrations"
				cfg.DB.Postgres.Write.SSLMode = "require"
			},
			want: "postgres://hallbook:secret@db:5432/test_hallbook?sslmode=require&x-migrations-table=schema_migrations",
		},
		{
			name: "password is escaped",
			modify: func(cfg *config.Config) {
				cfg.DB.Postgres.Write.Password = "p@ss/word"
			},
			want: "postgres://hallbook:p%40ss%2Fword@db:5432/hallbook?sslmode=disable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{}
			cfg.DB.Postgres.Write.Host = "db"
			cfg.DB.Postgres.Write.Port = "5432"
			cfg.DB.Postgres.Write.Username = "hallbook"
			cfg.DB.Postgres.Write.Password = "secret"
			cfg.DB.Postgres.Write.Name = "hallbook"

			if tt.modify != nil {
				tt.modify(cfg)
			}

			assert.Equal(t, tt.want, connectionString(cfg))
		})
	}
}
