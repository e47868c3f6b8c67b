package i18n

import (
	"strings"
	"testing"
)

func TestResolverFallbackChain(t *testing.T) {
	r := MustNewResolver()

	// Selected language wins.
	if got := r.Text("hi", "confirm.yes"); got != "पुष्टि करें" {
		t.Errorf("hi confirm.yes = %q", got)
	}

	// Unknown language falls back to English.
	if got := r.Text("fr", "confirm.yes"); got != "Confirm" {
		t.Errorf("fr confirm.yes = %q", got)
	}

	// Unmapped key degrades to the key itself.
	if got := r.Text("en", "no.such.key"); got != "no.such.key" {
		t.Errorf("unmapped key = %q", got)
	}
}

func TestResolverFormatting(t *testing.T) {
	r := MustNewResolver()

	got := r.Text("en", "grievance.success", "GRV00000042")
	if !strings.Contains(got, "GRV00000042") {
		t.Errorf("formatted text missing reference: %q", got)
	}
}

func TestDepartmentCaptions(t *testing.T) {
	r := MustNewResolver()

	if got := r.DepartmentName("mr", "water"); got != "पाणी पुरवठा" {
		t.Errorf("mr dept.water = %q", got)
	}
	if got := r.DepartmentName("en", "unknown-dept"); got != "unknown-dept" {
		t.Errorf("unknown dept should echo the name, got %q", got)
	}
	if got := r.DepartmentDescription("en", "roads"); got == "" {
		t.Error("dept.roads.desc should resolve")
	}
	if got := r.DepartmentDescription("en", "unknown-dept"); got != "" {
		t.Errorf("unknown dept desc should be empty, got %q", got)
	}
}

func TestAllCatalogsCoverEnglishKeys(t *testing.T) {
	r := MustNewResolver()

	en := r.catalogs["en"]
	for _, lang := range []string{"hi", "mr"} {
		catalog, ok := r.catalogs[lang]
		if !ok {
			t.Fatalf("catalog %s missing", lang)
		}
		for key := range en {
			if _, ok := catalog[key]; !ok {
				t.Errorf("catalog %s missing key %s", lang, key)
			}
		}
	}
}

func TestSupported(t *testing.T) {
	if !Supported("en") || !Supported("hi") || !Supported("mr") {
		t.Error("shipped languages should be supported")
	}
	if Supported("fr") {
		t.Error("fr should not be supported")
	}
}
