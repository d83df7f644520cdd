package lookup

import (
	"regexp"
	"strings"
)

// displayPrefix decorates resolved external names on POS displays.
const displayPrefix = "✨"

// sizePattern matches volume tokens like "750ml", "1.75 L", "12oz".
var sizePattern = regexp.MustCompile(`(?i)\d+(\.\d+)?\s*(ml|l|oz|cl)`)

// categories are scanned in order; the first whole-word match wins and the
// scan stops.
var categories = []string{
	"Vodka", "Whiskey", "Tequila", "Rum", "Gin",
	"Brandy", "Wine", "Cognac", "Bourbon",
}

var categoryPatterns = buildCategoryPatterns()

func buildCategoryPatterns() map[string]*regexp.Regexp {
	m := make(map[string]*regexp.Regexp, len(categories))
	for _, c := range categories {
		m[c] = regexp.MustCompile(`(?i)\b` + c + `\b`)
	}
	return m
}

// Parsed is the outcome of title extraction.
type Parsed struct {
	Name     string
	Size     string
	Category string
}

// ParseTitle extracts a size token and a category keyword from a free-text
// product title. Matched tokens are removed from the remaining name; the
// category is recorded in its canonical capitalization.
func ParseTitle(raw string) Parsed {
	p := Parsed{Name: strings.TrimSpace(raw)}

	if loc := sizePattern.FindStringIndex(p.Name); loc != nil {
		p.Size = p.Name[loc[0]:loc[1]]
		p.Name = strings.TrimSpace(p.Name[:loc[0]] + p.Name[loc[1]:])
	}

	for _, c := range categories {
		re := categoryPatterns[c]
		if re.MatchString(p.Name) {
			p.Category = c
			p.Name = strings.TrimSpace(re.ReplaceAllString(p.Name, ""))
			break
		}
	}

	return p
}

// Display renders the decorated display name: the prefix glyph followed by
// the non-empty parts of name, category and size joined by single spaces.
func (p Parsed) Display() string {
	parts := make([]string, 0, 3)
	for _, part := range []string{p.Name, p.Category, p.Size} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return displayPrefix + strings.Join(parts, " ")
}
