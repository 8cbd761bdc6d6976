package slug

import (
	"strings"
	"testing"
)

func TestGenerate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"single word", "Shoes", "shoes"},
		{"two words", "Running Shoes", "running-shoes"},
		{"apostrophe", "Men's Clothing", "mens-clothing"},
		{"ampersand", "Bags & Wallets", "bags-and-wallets"},
		{"accents", "Café Crème", "cafe-creme"},
		{"romanian", "Îmbrăcăminte Bărbați", "imbracaminte-barbati"},
		{"german", "Straßenschuhe", "strassenschuhe"},
		{"digits", "Kids 3-5 Years", "kids-3-5-years"},
		{"slash", "T-Shirts/Tops", "t-shirtstops"},
		{"underscores and tabs", "home_office\tdesks", "home-office-desks"},
		{"surrounding space", "   Sale   ", "sale"},
		{"repeated hyphens", "Summer -- Collection", "summer-collection"},
		{"only symbols", "!!! ???", ""},
		{"empty", "", ""},
		{"non latin", "靴", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Generate(tt.input); got != tt.want {
				t.Errorf("Generate(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestGenerateLength(t *testing.T) {
	name := strings.Repeat("outdoor ", 20)
	got := Generate(name)
	if len(got) > MaxLength {
		t.Fatalf("len = %d, want <= %d", len(got), MaxLength)
	}
	if strings.HasSuffix(got, "-") || !strings.HasSuffix(got, "outdoor") {
		t.Errorf("expected a cut at a word boundary, got %q", got)
	}

	long := strings.Repeat("x", 100)
	if got := Generate(long); len(got) != MaxLength {
		t.Errorf("single long word: len = %d, want %d", len(got), MaxLength)
	}
}

func TestLink(t *testing.T) {
	if got := Link("Winter Boots"); got != "/category/winter-boots" {
		t.Errorf("Link = %q", got)
	}
	if got := Link("???"); got != "" {
		t.Errorf("Link of unusable name = %q, want empty", got)
	}
}

func TestUniqueLink(t *testing.T) {
	existing := map[string]bool{
		"/category/shoes":   true,
		"/category/shoes-2": true,
	}
	taken := func(link string) bool { return existing[link] }

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"free", "Hats", "/category/hats"},
		{"taken twice", "Shoes", "/category/shoes-3"},
		{"unusable", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UniqueLink(tt.input, taken); got != tt.want {
				t.Errorf("UniqueLink(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
