// Package cache provides standardized cache key generation functions.
// Using consistent key naming helps avoid collisions and makes cache
// management easier. All keys follow the pattern: "prefix:identifier".
package cache

import "fmt"

// Key prefixes for different cache types.
// These constants ensure consistent key naming across the application.
const (
	SettingsPrefix = "settings:"
	SEOPrefix      = "seo:"
	RedirectPrefix = "redirect:"
)

// SettingsKey is the cache key for the single site settings document.
//
// Example: "settings:site"
func SettingsKey() string {
	return SettingsPrefix + "site"
}

// SEOKey generates a cache key for the SEO override of a route.
//
// Example: "seo:/games/starfall-tactics"
func SEOKey(route string) string {
	return fmt.Sprintf("%s%s", SEOPrefix, route)
}

// RedirectKey generates a cache key for a redirect resolution by source
// path. Resolutions are cached briefly so hot paths skip the store.
//
// Example: "redirect:/old-catalog"
func RedirectKey(sourcePath string) string {
	return fmt.Sprintf("%s%s", RedirectPrefix, sourcePath)
}

// RedirectAllPattern returns a glob pattern matching every cached redirect
// resolution. Used to invalidate the lot when a rule is created, edited,
// or deleted.
//
// Example: "redirect:*"
func RedirectAllPattern() string {
	return RedirectPrefix + "*"
}

// SEOAllPattern returns a glob pattern matching every cached SEO override.
//
// Example: "seo:*"
func SEOAllPattern() string {
	return SEOPrefix + "*"
}
