package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalogs/*.yaml
var catalogFS embed.FS

// DefaultLanguage is the fallback for unset or unmapped languages.
const DefaultLanguage = "en"

// Languages lists the selectable languages in menu order.
var Languages = []Language{
	{Code: "en", Name: "English"},
	{Code: "hi", Name: "हिंदी"},
	{Code: "mr", Name: "मराठी"},
}

// Language pairs a catalog code with its native display name.
type Language struct {
	Code string
	Name string
}

// Supported reports whether code has a catalog.
func Supported(code string) bool {
	for _, l := range Languages {
		if l.Code == code {
			return true
		}
	}
	return false
}

// Resolver resolves message keys to localized text.
// Resolution order: selected language -> en -> the key itself, so an
// unmapped key degrades visibly instead of crashing.
type Resolver struct {
	catalogs map[string]map[string]string
}

// NewResolver loads the embedded catalogs.
func NewResolver() (*Resolver, error) {
	catalogs := make(map[string]map[string]string)
	entries, err := fs.ReadDir(catalogFS, "catalogs")
	if err != nil {
		return nil, fmt.Errorf("i18n: read catalogs: %w", err)
	}
	for _, entry := range entries {
		lang := strings.TrimSuffix(entry.Name(), ".yaml")
		data, err := catalogFS.ReadFile(path.Join("catalogs", entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("i18n: read catalog %s: %w", lang, err)
		}
		catalog := make(map[string]string)
		if err := yaml.Unmarshal(data, &catalog); err != nil {
			return nil, fmt.Errorf("i18n: parse catalog %s: %w", lang, err)
		}
		catalogs[lang] = catalog
	}
	if _, ok := catalogs[DefaultLanguage]; !ok {
		return nil, fmt.Errorf("i18n: default catalog %q missing", DefaultLanguage)
	}
	return &Resolver{catalogs: catalogs}, nil
}

// MustNewResolver panics on catalog errors. Catalogs are embedded, so a
// failure here is a build defect, not a runtime condition.
func MustNewResolver() *Resolver {
	r, err := NewResolver()
	if err != nil {
		panic(err)
	}
	return r
}

// Text resolves key for lang, formatting args with Sprintf when present.
func (r *Resolver) Text(lang, key string, args ...any) string {
	text, ok := r.lookup(lang, key)
	if !ok {
		return key
	}
	if len(args) == 0 {
		return text
	}
	return fmt.Sprintf(text, args...)
}

// DepartmentName resolves a department caption, falling back to the raw name.
func (r *Resolver) DepartmentName(lang, dept string) string {
	if text, ok := r.lookup(lang, "dept."+dept); ok {
		return text
	}
	return dept
}

// DepartmentDescription resolves a department description, empty when unmapped.
func (r *Resolver) DepartmentDescription(lang, dept string) string {
	if text, ok := r.lookup(lang, "dept."+dept+".desc"); ok {
		return text
	}
	return ""
}

func (r *Resolver) lookup(lang, key string) (string, bool) {
	if catalog, ok := r.catalogs[lang]; ok {
		if text, ok := catalog[key]; ok {
			return text, true
		}
	}
	if lang != DefaultLanguage {
		if text, ok := r.catalogs[DefaultLanguage][key]; ok {
			return text, true
		}
	}
	return "", false
}
