package state

// migration is one versioned schema change.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered list of all schema migrations.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create settings and url_cache",
		SQL: `
			CREATE TABLE settings (
				key        TEXT PRIMARY KEY,
				value      TEXT NOT NULL,
				updated_at TEXT NOT NULL DEFAULT (datetime('now'))
			);

			CREATE TABLE url_cache (
				key        TEXT PRIMARY KEY,
				url        TEXT NOT NULL,
				fetched_at TEXT NOT NULL
			);
		`,
	},
}
