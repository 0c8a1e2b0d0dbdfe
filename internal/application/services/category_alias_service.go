package services

import (
	"strings"

	"github.com/glowtrip/procedure-recommender/internal/domain/entities"
	"github.com/glowtrip/procedure-recommender/pkg/labels"
)

// UI-facing category names. The catalog's own large/mid labels are free
// text, so each UI category maps to the set of label substrings that
// count as a match.
const (
	CategoryAll   = "전체"
	CategoryOther = "기타"
)

// defaultCategoryAliases is the static alias table. An empty alias list
// is a wildcard; a single alias matches the large-category field only;
// multiple aliases match large or mid.
var defaultCategoryAliases = map[string][]string{
	CategoryAll: {},
	"눈성형":       {"눈"},
	"코성형":       {"코"},
	"안면윤곽":      {"윤곽", "광대", "턱"},
	"가슴성형":      {"가슴"},
	"지방성형":      {"지방", "흡입", "바디"},
	"피부시술":      {"피부", "레이저", "모공"},
	"쁘띠시술":      {"보톡스", "필러", "리프팅"},
	CategoryOther: {},
}

// CategoryAliasService expands a coarse UI category into raw label
// aliases and evaluates them as a filter predicate over catalog records.
type CategoryAliasService struct {
	aliases map[string][]string
}

// NewCategoryAliasService creates the mapper with the default alias table.
func NewCategoryAliasService() *CategoryAliasService {
	return NewCategoryAliasServiceWithTable(defaultCategoryAliases)
}

// NewCategoryAliasServiceWithTable creates the mapper with a custom table.
func NewCategoryAliasServiceWithTable(table map[string][]string) *CategoryAliasService {
	aliases := make(map[string][]string, len(table))
	for category, list := range table {
		normalized := make([]string, 0, len(list))
		for _, alias := range list {
			if n := labels.Normalize(alias); n != "" {
				normalized = append(normalized, n)
			}
		}
		aliases[category] = normalized
	}
	return &CategoryAliasService{aliases: aliases}
}

// Expand returns the alias substrings registered for a UI category. An
// unknown category expands to nil, which Matches treats as wildcard.
func (s *CategoryAliasService) Expand(uiCategory string) []string {
	list := s.aliases[uiCategory]
	out := make([]string, len(list))
	copy(out, list)
	return out
}

// Known reports whether the UI category exists in the alias table.
func (s *CategoryAliasService) Known(uiCategory string) bool {
	_, ok := s.aliases[uiCategory]
	return ok
}

// Matches reports whether a catalog record belongs to a UI category.
func (s *CategoryAliasService) Matches(uiCategory string, p *entities.Procedure) bool {
	if uiCategory == "" || uiCategory == CategoryAll {
		return true
	}
	if uiCategory == CategoryOther {
		return !s.matchesAnyDefined(p)
	}

	list, ok := s.aliases[uiCategory]
	if !ok || len(list) == 0 {
		return true
	}
	return matchAliases(p, list)
}

// matchesAnyDefined reports whether the record matches any alias of any
// category other than All and Other. "Other" captures only records that
// no defined category claims.
func (s *CategoryAliasService) matchesAnyDefined(p *entities.Procedure) bool {
	for category, list := range s.aliases {
		if category == CategoryAll || category == CategoryOther || len(list) == 0 {
			continue
		}
		if matchAliases(p, list) {
			return true
		}
	}
	return false
}

func matchAliases(p *entities.Procedure, aliases []string) bool {
	large := labels.Normalize(p.LargeCategory)

	// A single alias constrains the large-category field only.
	if len(aliases) == 1 {
		return strings.Contains(large, aliases[0])
	}

	mid := labels.Normalize(p.MidCategory)
	for _, alias := range aliases {
		if strings.Contains(large, alias) || strings.Contains(mid, alias) {
			return true
		}
	}
	return false
}
