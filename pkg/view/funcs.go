package view

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// titleCase builds a Caser per call; Casers keep state between calls.
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}
