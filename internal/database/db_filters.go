package database

import (
	"fmt"

	"github.com/go-while/go-tyggbot/internal/models"
)

// ListBanphrases returns enabled filters of type banphrase
func (t *Tx) ListBanphrases() ([]*models.Filter, error) {
	rows, err := t.query(`SELECT id, name, type, filter, action, extra_args, enabled, num_uses
		FROM filters WHERE enabled = 1 AND type = ? ORDER BY id`, models.FilterTypeBanphrase)
	if err != nil {
		return nil, fmt.Errorf("query banphrases: %w", err)
	}
	defer rows.Close()

	var out []*models.Filter
	for rows.Next() {
		f := &models.Filter{}
		if err := rows.Scan(&f.ID, &f.Name, &f.Type, &f.Phrase, &f.Action, &f.Extra, &f.Enabled, &f.NumUses); err != nil {
			return nil, fmt.Errorf("scan banphrase: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// ListBlacklistedLinks returns every blacklisted link
func (t *Tx) ListBlacklistedLinks() ([]*models.BlacklistedLink, error) {
	rows, err := t.query(`SELECT id, domain, path, level FROM link_blacklist ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query link blacklist: %w", err)
	}
	defer rows.Close()

	var out []*models.BlacklistedLink
	for rows.Next() {
		l := &models.BlacklistedLink{}
		if err := rows.Scan(&l.ID, &l.Domain, &l.Path, &l.Level); err != nil {
			return nil, fmt.Errorf("scan blacklisted link: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// ListWhitelistedLinks returns every whitelisted link
func (t *Tx) ListWhitelistedLinks() ([]*models.WhitelistedLink, error) {
	rows, err := t.query(`SELECT id, domain, path FROM link_whitelist ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query link whitelist: %w", err)
	}
	defer rows.Close()

	var out []*models.WhitelistedLink
	for rows.Next() {
		l := &models.WhitelistedLink{}
		if err := rows.Scan(&l.ID, &l.Domain, &l.Path); err != nil {
			return nil, fmt.Errorf("scan whitelisted link: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// InsertBanphrase adds a filter row, used by seeding tools and tests
func (t *Tx) InsertBanphrase(f *models.Filter) error {
	if f.Type == "" {
		f.Type = models.FilterTypeBanphrase
	}
	res, err := t.exec(`INSERT INTO filters (name, type, filter, action, extra_args, enabled, num_uses)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, f.Name, f.Type, f.Phrase, f.Action, f.Extra, f.Enabled, f.NumUses)
	if err != nil {
		return fmt.Errorf("insert filter: %w", err)
	}
	f.ID, err = res.LastInsertId()
	return err
}

// InsertBlacklistedLink adds a blacklist row
func (t *Tx) InsertBlacklistedLink(l *models.BlacklistedLink) error {
	res, err := t.exec(`INSERT INTO link_blacklist (domain, path, level) VALUES (?, ?, ?)`, l.Domain, l.Path, l.Level)
	if err != nil {
		return fmt.Errorf("insert blacklisted link: %w", err)
	}
	l.ID, err = res.LastInsertId()
	return err
}

// InsertWhitelistedLink adds a whitelist row
func (t *Tx) InsertWhitelistedLink(l *models.WhitelistedLink) error {
	res, err := t.exec(`INSERT INTO link_whitelist (domain, path) VALUES (?, ?)`, l.Domain, l.Path)
	if err != nil {
		return fmt.Errorf("insert whitelisted link: %w", err)
	}
	l.ID, err = res.LastInsertId()
	return err
}
