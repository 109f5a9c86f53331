package postgres

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPgxMigrateURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"postgres://u:p@localhost:5432/tally?sslmode=disable", "pgx5://u:p@localhost:5432/tally?sslmode=disable"},
		{"postgresql://u:p@db/tally", "pgx5://u:p@db/tally"},
		{"pgx5://u:p@db/tally", "pgx5://u:p@db/tally"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, pgxMigrateURL(tt.in))
		})
	}
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	for _, schema := range []Schema{SchemaBudget, SchemaLedger} {
		t.Run(string(schema), func(t *testing.T) {
			ups, err := fs.Glob(migrationsFS, "migrations/"+string(schema)+"/*.up.sql")
			require.NoError(t, err)
			downs, err := fs.Glob(migrationsFS, "migrations/"+string(schema)+"/*.down.sql")
			require.NoError(t, err)

			assert.NotEmpty(t, ups)
			assert.Len(t, downs, len(ups))
		})
	}
}

func TestNewMigratorRejectsUnknownSchema(t *testing.T) {
	_, err := NewMigrator("postgres://localhost/tally", Schema("reports"))
	assert.Error(t, err)
}
