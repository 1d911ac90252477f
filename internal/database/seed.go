package database

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// Seed populates the templates table with a small set of starter pages.
// It is a no-op when any templates already exist, so it is safe to run
// on every startup in development.
func Seed(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM templates").Scan(&count); err != nil {
		return fmt.Errorf("seed check templates: %w", err)
	}

	if count > 0 {
		slog.Info("database already seeded, skipping")
		return nil
	}

	starters := map[string]string{
		"index.html": "<h1>{{ site.title }}</h1>\n<p>{{ site.tagline }}</p>\n",
		"about.html": "<h1>About</h1>\n<p>{{ site.title }} is rendered by tmplpress.</p>\n",
	}

	for name, source := range starters {
		_, err := db.Exec(`
			INSERT INTO templates (name, source)
			VALUES ($1, $2)
		`, name, source)
		if err != nil {
			return fmt.Errorf("seed insert template %q: %w", name, err)
		}
	}

	slog.Info("database seeded with starter templates", "count", len(starters))
	return nil
}
