package migration

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmbeddedMigrations(t *testing.T) {
	migrations, err := Load()
	require.NoError(t, err)
	require.Len(t, migrations, 1)

	create := migrations[0]
	assert.Equal(t, "20251025174004", create.Version)
	assert.Equal(t, "create_merchants", create.Name)
	assert.Contains(t, create.Up, "name character varying NOT NULL")
	assert.Contains(t, create.Up, "description text,")
	assert.Contains(t, create.Up, "email character varying NOT NULL")
	assert.Contains(t, create.Up, "active boolean,")
	assert.Contains(t, create.Up, "total_transaction_sum numeric(10,2) DEFAULT 0 NOT NULL")
	assert.Contains(t, create.Up, "created_at timestamp(6) without time zone NOT NULL")
	assert.Contains(t, create.Up, "CREATE UNIQUE INDEX index_merchants_on_email ON merchants")
	assert.Contains(t, create.Down, "DROP TABLE IF EXISTS merchants")
}

func TestLoadOrdersByVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"m/20240102000000_second.up.sql":   {Data: []byte("SELECT 2")},
		"m/20240102000000_second.down.sql": {Data: []byte("SELECT -2")},
		"m/20240101000000_first.up.sql":    {Data: []byte("SELECT 1")},
		"m/20240101000000_first.down.sql":  {Data: []byte("SELECT -1")},
		"m/README.md":                      {Data: []byte("ignored")},
	}

	migrations, err := load(fsys, "m")
	require.NoError(t, err)
	require.Len(t, migrations, 2)
	assert.Equal(t, "first", migrations[0].Name)
	assert.Equal(t, "second", migrations[1].Name)
}

func TestLoadRejectsMissingDown(t *testing.T) {
	fsys := fstest.MapFS{
		"m/20240101000000_first.up.sql": {Data: []byte("SELECT 1")},
	}

	_, err := load(fsys, "m")
	assert.Error(t, err)
}

func TestLoadRejectsMalformedName(t *testing.T) {
	fsys := fstest.MapFS{
		"m/nounderscore.up.sql": {Data: []byte("SELECT 1")},
	}

	_, err := load(fsys, "m")
	assert.Error(t, err)
}

func TestStatements(t *testing.T) {
	got := statements("CREATE TABLE a (id int);\n\nCREATE INDEX i ON a (id);\n")
	assert.Equal(t, []string{"CREATE TABLE a (id int)", "CREATE INDEX i ON a (id)"}, got)
	assert.Empty(t, statements("  \n"))
}
