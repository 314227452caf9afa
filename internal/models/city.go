package models

import (
	"regexp"
	"strings"
)

// City is the metadata header of a precomputed city dataset.
type City struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
	Hub  string `json:"hub,omitempty"`
}

// Stop is a named transit stop candidate for tram endpoints.
type Stop struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify normalizes a place name into the dataset file naming scheme,
// e.g. "Bournemouth, UK" -> "bournemouth-uk".
func Slugify(name string) string {
	return strings.Trim(slugPattern.ReplaceAllString(strings.ToLower(name), "-"), "-")
}
