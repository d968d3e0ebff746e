package toml

import "fmt"

const currentSchemaVersion = 1

type fileSchema struct {
	Version int           `toml:"version"`
	Entries []entrySchema `toml:"entries"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported entry cache schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type entrySchema struct {
	Identifier  string           `toml:"identifier,omitempty"`
	Slug        string           `toml:"slug"`
	Title       string           `toml:"title"`
	Description string           `toml:"description"`
	DateCreated string           `toml:"date_created,omitempty"`
	DateUpdated string           `toml:"date_updated,omitempty"`
	Related     []entryRefSchema `toml:"related,omitempty"`
	FetchedAt   string           `toml:"fetched_at,omitempty"`
}

type entryRefSchema struct {
	Slug  string `toml:"slug"`
	Title string `toml:"title"`
}
