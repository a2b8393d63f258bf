package store

import (
	"database/sql"
	"strconv"
)

// Metadata keys describing the catalog the archive was written with.
const (
	MetaCatalogSHA   = "catalog_sha256"
	MetaCatalogRoles = "catalog_roles"
)

// SetMetadata upserts a key-value pair in the archive_metadata table.
func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO archive_metadata (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = ?`,
		key, value, value,
	)
	return err
}

// GetMetadata returns the value for a metadata key.
// Returns empty string and nil error if the key is missing.
func (s *Store) GetMetadata(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM archive_metadata WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// RecordCatalog stores the fingerprint of the catalog in use. It reports
// whether the fingerprint differs from the one recorded before.
func (s *Store) RecordCatalog(sha string, roles int) (changed bool, err error) {
	prev, err := s.GetMetadata(MetaCatalogSHA)
	if err != nil {
		return false, err
	}
	if err := s.SetMetadata(MetaCatalogSHA, sha); err != nil {
		return false, err
	}
	if err := s.SetMetadata(MetaCatalogRoles, strconv.Itoa(roles)); err != nil {
		return false, err
	}
	return prev != "" && prev != sha, nil
}
