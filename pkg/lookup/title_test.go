package lookup

import "testing"

func TestParseTitle(t *testing.T) {
	tests := []struct {
		name         string
		title        string
		wantName     string
		wantSize     string
		wantCategory string
	}{
		{
			name:         "size_and_category",
			title:        "Grey Goose Vodka 750ml",
			wantName:     "Grey Goose",
			wantSize:     "750ml",
			wantCategory: "Vodka",
		},
		{
			name:         "decimal_size_with_space",
			title:        "Jameson Irish Whiskey 1.75 L",
			wantName:     "Jameson Irish",
			wantSize:     "1.75 L",
			wantCategory: "Whiskey",
		},
		{
			name:     "ounces",
			title:    "Cola Classic 12oz",
			wantName: "Cola Classic",
			wantSize: "12oz",
		},
		{
			name:         "first_category_in_list_wins",
			title:        "Vodka Rum Blend",
			wantName:     "Rum Blend",
			wantCategory: "Vodka",
		},
		{
			name:     "category_needs_whole_word",
			title:    "Rumchata Cream 750ml",
			wantName: "Rumchata Cream",
			wantSize: "750ml",
		},
		{
			name:         "all_category_occurrences_removed",
			title:        "Vodka Premium Vodka",
			wantName:     "Premium",
			wantCategory: "Vodka",
		},
		{
			name:     "no_extractable_tokens",
			title:    "Mystery Snack Box",
			wantName: "Mystery Snack Box",
		},
		{
			name:         "size_first_in_title",
			title:        "750ml Vodka",
			wantName:     "",
			wantSize:     "750ml",
			wantCategory: "Vodka",
		},
		{
			name:         "case_insensitive_matches",
			title:        "grey goose VODKA 750ML",
			wantName:     "grey goose",
			wantSize:     "750ML",
			wantCategory: "Vodka",
		},
		{
			name:     "empty_title",
			title:    "",
			wantName: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseTitle(tt.title)

			if got.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", got.Name, tt.wantName)
			}
			if got.Size != tt.wantSize {
				t.Errorf("Size = %q, want %q", got.Size, tt.wantSize)
			}
			if got.Category != tt.wantCategory {
				t.Errorf("Category = %q, want %q", got.Category, tt.wantCategory)
			}
		})
	}
}

func TestDisplay(t *testing.T) {
	tests := []struct {
		name   string
		parsed Parsed
		want   string
	}{
		{
			name:   "all_parts",
			parsed: Parsed{Name: "Grey Goose", Category: "Vodka", Size: "750ml"},
			want:   "✨Grey Goose Vodka 750ml",
		},
		{
			name:   "name_only",
			parsed: Parsed{Name: "Mystery Snack Box"},
			want:   "✨Mystery Snack Box",
		},
		{
			name:   "empty_name_skipped",
			parsed: Parsed{Category: "Vodka", Size: "750ml"},
			want:   "✨Vodka 750ml",
		},
		{
			name:   "nothing",
			parsed: Parsed{},
			want:   "✨",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.parsed.Display(); got != tt.want {
				t.Errorf("Display() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseTitleRoundTripsCanonicalLayout(t *testing.T) {
	// Extraction reorders nothing for the canonical name-category-size
	// layout, so the display equals the original title with the prefix.
	got := ParseTitle("Grey Goose Vodka 750ml").Display()
	if got != "✨Grey Goose Vodka 750ml" {
		t.Errorf("Display() = %q", got)
	}
}
