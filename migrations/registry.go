// Package migrations ships the schema of the SQL credential store and applies
// it through go-persistence-bun.
package migrations

import (
	"context"
	"fmt"
	"io/fs"
	"strings"

	persistence "github.com/goliatone/go-persistence-bun"

	apiclient "github.com/goliatone/go-apiclient"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

// SessionEntriesTable is the table every dialect's migration set creates.
const SessionEntriesTable = "apiclient_session_entries"

const rootPath = "data/sql/migrations"

// Source is the migration set of one dialect.
type Source struct {
	Dialect string
	Path    string
	FS      fs.FS
}

type config struct {
	root fs.FS
}

type Option func(*config)

// WithRoot reads migrations from root instead of the embedded tree. root may
// hold data/sql/migrations or the migration files directly.
func WithRoot(root fs.FS) Option {
	return func(c *config) {
		if root != nil {
			c.root = root
		}
	}
}

// ForDialect resolves the migration set of dialect. Postgres files live at the
// root of the tree and sqlite files under sqlite/.
func ForDialect(dialect string, opts ...Option) (Source, error) {
	cfg := config{root: apiclient.GetMigrationsFS()}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	base, basePath, err := migrationsRoot(cfg.root)
	if err != nil {
		return Source{}, err
	}

	source := Source{Dialect: strings.TrimSpace(strings.ToLower(dialect))}
	switch source.Dialect {
	case DialectPostgres:
		source.Path = basePath
		source.FS = base
	case DialectSQLite:
		sub, err := fs.Sub(base, "sqlite")
		if err != nil {
			return Source{}, fmt.Errorf("migrations: resolve sqlite filesystem: %w", err)
		}
		source.Path = pathJoin(basePath, "sqlite")
		source.FS = sub
	default:
		return Source{}, fmt.Errorf("migrations: unsupported dialect %q", dialect)
	}

	if err := checkSessionEntries(source); err != nil {
		return Source{}, err
	}
	return source, nil
}

// Sources resolves the migration sets of every supported dialect.
func Sources(opts ...Option) ([]Source, error) {
	sources := make([]Source, 0, 2)
	for _, dialect := range []string{DialectPostgres, DialectSQLite} {
		source, err := ForDialect(dialect, opts...)
		if err != nil {
			return nil, err
		}
		sources = append(sources, source)
	}
	return sources, nil
}

// Apply registers the migration set of dialect on client and runs it.
func Apply(ctx context.Context, client *persistence.Client, dialect string, opts ...Option) error {
	if client == nil {
		return fmt.Errorf("migrations: persistence client is required")
	}
	source, err := ForDialect(dialect, opts...)
	if err != nil {
		return err
	}
	client.RegisterSQLMigrations(source.FS)
	if err := client.Migrate(ctx); err != nil {
		return fmt.Errorf("migrations: apply %s: %w", source.Dialect, err)
	}
	return nil
}

// checkSessionEntries requires an up file that creates the session entries
// table, so a misplaced root fails before anything touches the database.
func checkSessionEntries(source Source) error {
	matches, err := fs.Glob(source.FS, "*.up.sql")
	if err != nil {
		return fmt.Errorf("migrations: glob %s %s: %w", source.Dialect, source.Path, err)
	}
	if len(matches) == 0 {
		return fmt.Errorf("migrations: %s filesystem %q has no *.up.sql files", source.Dialect, source.Path)
	}
	for _, name := range matches {
		content, err := fs.ReadFile(source.FS, name)
		if err != nil {
			return fmt.Errorf("migrations: read %s/%s: %w", source.Path, name, err)
		}
		if strings.Contains(string(content), SessionEntriesTable) {
			return nil
		}
	}
	return fmt.Errorf("migrations: %s filesystem %q does not create %s", source.Dialect, source.Path, SessionEntriesTable)
}

func migrationsRoot(root fs.FS) (fs.FS, string, error) {
	sub, err := fs.Sub(root, rootPath)
	if err == nil {
		if _, statErr := fs.Stat(sub, "."); statErr == nil {
			return sub, rootPath, nil
		}
	}

	entries, readErr := fs.ReadDir(root, ".")
	if readErr == nil {
		for _, entry := range entries {
			if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
				return root, ".", nil
			}
		}
	}

	return nil, "", fmt.Errorf("migrations: %s not found", rootPath)
}

func pathJoin(base string, suffix string) string {
	if base == "." {
		return suffix
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(suffix, "/")
}
