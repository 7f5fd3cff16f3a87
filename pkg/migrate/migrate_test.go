package migrate

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func readEmbedded(t *testing.T, suffix string) string {
	t.Helper()
	entries, err := fs.ReadDir(Migrations, embeddedDir)
	require.NoError(t, err)
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), suffix) {
			b, err := fs.ReadFile(Migrations, embeddedDir+"/"+e.Name())
			require.NoError(t, err)
			return string(b)
		}
	}
	t.Fatalf("no migration ending in %s", suffix)
	return ""
}

func TestEmbeddedMigrationsAreValid(t *testing.T) {
	require.NoError(t, ValidateFS(Migrations, embeddedDir))
}

func TestCreateTablesCoversSyncedCollections(t *testing.T) {
	sql := readEmbedded(t, "_create_roastery_tables.sql")

	for _, table := range []string{
		"green_coffee", "roasts", "roasted_stock", "retail_bags", "orders",
		"production_activities", "production_inventory", "expenses",
		"cupping_sessions", "user_profiles", "auth_identities",
	} {
		require.Contains(t, sql, "CREATE TABLE IF NOT EXISTS "+table+" (", table)
		require.Contains(t, sql, "DROP TABLE IF EXISTS "+table+";", table)
	}
	require.Contains(t, sql, "shipping_cost           NUMERIC(12,2)")
	require.Contains(t, sql, "'En Producción'")
}

func TestNotificationTriggerUsesChangeChannel(t *testing.T) {
	sql := readEmbedded(t, "_add_change_notifications.sql")

	require.Contains(t, sql, "'roastery_changes'")
	require.Contains(t, sql, "'table', TG_TABLE_NAME")
	require.Contains(t, sql, "FOR EACH ROW EXECUTE FUNCTION roastery_notify_change()")
	require.NotContains(t, sql, "'auth_identities'")
}

func TestValidateDirRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "001_init.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))

	err := ValidateDir(dir)
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid migration filename")
}

func TestValidateDirRejectsMissingDown(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20260101000000_init.sql"), []byte("-- +goose Up\nSELECT 1;\n"), 0o644))

	err := ValidateDir(dir)
	require.Error(t, err)
	require.Contains(t, err.Error(), "missing \"-- +goose Down\"")
}

func TestCreateSQLMigrationSanitizesName(t *testing.T) {
	dir := t.TempDir()

	path, err := CreateSQLMigration(dir, "Add Cupping Notes!")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(path, "_add_cupping_notes.sql"), path)
	require.NoError(t, ValidateDir(dir))

	_, err = CreateSQLMigration(dir, "  !!  ")
	require.Error(t, err)
}

func TestCreateSQLMigrationSyncedTableSkeleton(t *testing.T) {
	dir := t.TempDir()

	path, err := CreateSQLMigration(dir, "create tasting_notes")
	require.NoError(t, err)
	require.NoError(t, ValidateDir(dir))

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(body), "CREATE TABLE IF NOT EXISTS tasting_notes")
	require.Contains(t, string(body), "EXECUTE FUNCTION roastery_notify_change()")
	require.Contains(t, string(body), "DROP TABLE IF EXISTS tasting_notes")
}

func TestParseVersion(t *testing.T) {
	v, err := ParseVersion("20260301090000")
	require.NoError(t, err)
	require.Equal(t, int64(20260301090000), v)

	_, err = ParseVersion("2026")
	require.Error(t, err)
	_, err = ParseVersion("2026030109000x")
	require.Error(t, err)
}
