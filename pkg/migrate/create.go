package migrate

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var nameSanitizeRe = regexp.MustCompile(`[^a-z0-9_]+`)

const createTablePrefix = "create_"

// CreateSQLMigration writes <dir>/<YYYYMMDDHHMMSS>_<name>.sql. A name of the
// form create_<table> gets a synced-table skeleton: id plus timestamps and
// the change-notification trigger the remote feed relies on.
func CreateSQLMigration(dir string, name string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("dir is required")
	}
	if name == "" {
		return "", fmt.Errorf("name is required")
	}

	safe := strings.ToLower(strings.TrimSpace(name))
	safe = strings.ReplaceAll(safe, " ", "_")
	safe = nameSanitizeRe.ReplaceAllString(safe, "_")
	safe = strings.Trim(safe, "_")
	if safe == "" {
		return "", fmt.Errorf("name %q results in empty sanitized filename", name)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", dir, err)
	}

	version := time.Now().UTC().Format("20060102150405")
	fullpath := filepath.Join(dir, fmt.Sprintf("%s_%s.sql", version, safe))

	if _, err := os.Stat(fullpath); err == nil {
		return "", fmt.Errorf("migration already exists: %s", fullpath)
	}

	body := emptyTemplate(safe)
	if table, ok := strings.CutPrefix(safe, createTablePrefix); ok && table != "" {
		body = syncedTableTemplate(table)
	}

	if err := os.WriteFile(fullpath, []byte(body), 0o644); err != nil {
		return "", fmt.Errorf("write migration %q: %w", fullpath, err)
	}
	return fullpath, nil
}

func emptyTemplate(name string) string {
	return fmt.Sprintf(`-- +goose Up
-- +goose StatementBegin
-- %s
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
-- rollback %s
-- +goose StatementEnd
`, name, name)
}

func syncedTableTemplate(table string) string {
	return fmt.Sprintf(`-- +goose Up
-- +goose StatementBegin
CREATE TABLE IF NOT EXISTS %[1]s (
    id          TEXT PRIMARY KEY,
    created_at  TIMESTAMPTZ NOT NULL,
    updated_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_%[1]s_updated_at ON %[1]s (updated_at);
DROP TRIGGER IF EXISTS %[1]s_notify_change ON %[1]s;
CREATE TRIGGER %[1]s_notify_change AFTER INSERT OR UPDATE OR DELETE ON %[1]s
    FOR EACH ROW EXECUTE FUNCTION roastery_notify_change();
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
DROP TRIGGER IF EXISTS %[1]s_notify_change ON %[1]s;
DROP TABLE IF EXISTS %[1]s;
-- +goose StatementEnd
`, table)
}
