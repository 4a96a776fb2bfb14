package usecase

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/kirillkom/restaurant-classifier/internal/core/domain"
)

// Checked in order; the first keyword found in the folded reply wins.
var categorySynonyms = []struct {
	category domain.Category
	keywords []string
}{
	{domain.CategoryIndian, []string{"indian", "هندي"}},
	{domain.CategoryShawarma, []string{"shawarma", "wrap", "شاورما"}},
	{domain.CategoryLebanese, []string{"lebanese", "لبناني"}},
	{domain.CategoryGulf, []string{"gulf", "khaleeji", "خليج"}},
	{domain.CategorySeafood, []string{"fish", "seafood", "سمك", "أسماك"}},
	{domain.CategoryBurger, []string{"burger", "برجر"}},
}

// NormalizeCategory maps a free-text model reply onto the taxonomy. It
// never returns an empty category.
func NormalizeCategory(reply string) domain.Category {
	trimmed := strings.TrimSpace(strings.Trim(strings.TrimSpace(reply), "\"'`."))
	for _, c := range domain.Taxonomy {
		if trimmed == string(c) {
			return c
		}
	}

	folded := cases.Fold().String(trimmed)
	for _, rule := range categorySynonyms {
		for _, keyword := range rule.keywords {
			if strings.Contains(folded, keyword) {
				return rule.category
			}
		}
	}
	return domain.CategoryOther
}
