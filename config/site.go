package config

import (
	"fmt"
	"strings"
)

const siteSettingsName = "site"

// Site holds the settings shown on every page of the wiki.
type Site struct {
	Name     string
	Homepage string

	store Store
}

// LoadSite reads the site settings, filling in and saving defaults for any that
// are missing. defaultHomepage is used if no homepage has been saved.
func LoadSite(store Store, defaultHomepage string) (*Site, error) {
	s := &Site{
		store: store,
	}

	if err := store.GetSettings(siteSettingsName, s); err != nil {
		return nil, err
	}

	dirty := false

	if s.Name == "" {
		s.Name = "Wiki"
		dirty = true
	}

	if s.Homepage == "" {
		s.Homepage = defaultHomepage
		dirty = true
	}

	if dirty {
		_ = store.PutSettings(siteSettingsName, "System", "Initialising site config", s)
	}

	return s, nil
}

// Update applies the non-empty fields of config and saves the result.
func (s *Site) Update(config *Site, responsible string) error {
	if strings.ContainsAny(config.Homepage, "/\\%") || strings.HasPrefix(config.Homepage, ".") {
		return fmt.Errorf("homepage %q is not a valid page name", config.Homepage)
	}
	if config.Name != "" {
		s.Name = config.Name
	}
	if config.Homepage != "" {
		s.Homepage = config.Homepage
	}

	return s.store.PutSettings(siteSettingsName, responsible, "Updating site config", s)
}
