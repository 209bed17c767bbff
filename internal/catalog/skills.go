package catalog

// #region imports
import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// #endregion

// #region skill-catalog

// SkillMeta is the static metadata for one purchasable skill, including the
// disambiguation tokens that separate look-alike titles ("Corner Adept" vs
// "Corner Adept ○", "…" vs "Non-Standard Distance …").
type SkillMeta struct {
	Name          string   `json:"name"`
	RequireTokens []string `json:"require_tokens"`
	ForbidTokens  []string `json:"forbid_tokens"`
}

// SkillCatalog is the read-only skill lookup.
type SkillCatalog struct {
	byName map[string]SkillMeta
}

// LoadSkillCatalog reads the skills dataset. A missing file yields an empty
// catalog: matching then falls back to pure fuzzy title comparison.
func LoadSkillCatalog(path string) (*SkillCatalog, error) {
	c := &SkillCatalog{byName: map[string]SkillMeta{}}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("read skill catalog: %w", err)
	}
	var entries []SkillMeta
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse skill catalog: %w", err)
	}
	for _, e := range entries {
		c.byName[normalizeKey(e.Name)] = e
	}
	return c, nil
}

// NewSkillCatalogForTest builds an in-memory catalog keyed by skill name.
func NewSkillCatalogForTest(entries map[string]SkillMeta) *SkillCatalog {
	c := &SkillCatalog{byName: map[string]SkillMeta{}}
	for name, meta := range entries {
		c.byName[normalizeKey(name)] = meta
	}
	return c
}

// Lookup returns the metadata for a skill name, if known.
func (c *SkillCatalog) Lookup(name string) (SkillMeta, bool) {
	m, ok := c.byName[normalizeKey(name)]
	return m, ok
}

// Len reports the number of catalog entries.
func (c *SkillCatalog) Len() int { return len(c.byName) }

func normalizeKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, sym := range []string{"◎", "○", "×"} {
		s = strings.ReplaceAll(s, sym, "")
	}
	return strings.Join(strings.Fields(s), " ")
}

// #endregion skill-catalog
