package migrations

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Embedded(t *testing.T) {
	pg, err := Load(PostgresFS, "postgres")
	require.NoError(t, err)
	require.Len(t, pg, 2)
	assert.Equal(t, "001_impact_samples", pg[0].Version)
	assert.Equal(t, "002_sweep_results", pg[1].Version)

	ch, err := Load(ClickhouseFS, "clickhouse")
	require.NoError(t, err)
	require.Len(t, ch, 1)
	assert.Equal(t, "001_candles", ch[0].Version)
}

func TestLoad_OrdersAndSkipsBlank(t *testing.T) {
	fsys := fstest.MapFS{
		"m/010_b.sql":  {Data: []byte("SELECT 2;")},
		"m/002_a.sql":  {Data: []byte("SELECT 1;")},
		"m/003_x.sql":  {Data: []byte("  \n")},
		"m/readme.txt": {Data: []byte("ignored")},
	}
	got, err := Load(fsys, "m")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "002_a", got[0].Version)
	assert.Equal(t, "010_b", got[1].Version)
}

func TestEmbeddedClickhouseMigrationsSplit(t *testing.T) {
	ch, err := Load(ClickhouseFS, "clickhouse")
	require.NoError(t, err)
	for _, m := range ch {
		stmts, err := SplitStatements(m.SQL)
		require.NoError(t, err, m.Version)
		require.NotEmpty(t, stmts, m.Version)
		for _, s := range stmts {
			assert.NotContains(t, s, "--", m.Version)
		}
	}
}

func TestSplitStatements(t *testing.T) {
	input := `-- header
CREATE TABLE a (x UInt8) ENGINE = Memory;

-- second; with a semicolon
INSERT INTO a VALUES ('x;y'), ('it''s');
SELECT 1`

	stmts, err := SplitStatements(input)
	require.NoError(t, err)
	require.Len(t, stmts, 3)
	assert.Equal(t, "CREATE TABLE a (x UInt8) ENGINE = Memory", stmts[0])
	assert.Equal(t, "INSERT INTO a VALUES ('x;y'), ('it''s')", stmts[1])
	assert.Equal(t, "SELECT 1", stmts[2])
}

func TestSplitStatements_Unterminated(t *testing.T) {
	_, err := SplitStatements("SELECT 'open;")
	assert.ErrorIs(t, err, ErrUnterminatedString)
}

func TestDatabaseFromDSN(t *testing.T) {
	db, err := databaseFromDSN("clickhouse://default:@localhost:9000/signals")
	require.NoError(t, err)
	assert.Equal(t, "signals", db)

	_, err = databaseFromDSN("clickhouse://localhost:9000")
	assert.Error(t, err)
}

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, "`signals`", quoteIdent("signals"))
	assert.Equal(t, "`a``b`", quoteIdent("a`b"))
}
