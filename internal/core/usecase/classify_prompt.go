package usecase

import (
	"fmt"
	"strings"

	"github.com/kirillkom/restaurant-classifier/internal/core/domain"
)

const classificationMaxOutputTokens = 20

func buildClassificationPrompt(in domain.ClassifyInput) domain.ChatPrompt {
	labels := make([]string, 0, len(domain.Taxonomy))
	for _, c := range domain.Taxonomy {
		labels = append(labels, string(c))
	}

	system := `You classify restaurants by cuisine.
Assign the restaurant to exactly one of these categories: ` + strings.Join(labels, ", ") + `.
Reply only with the matching category exactly as written (for example: ` + string(domain.CategoryIndian) + `).
No explanation, no punctuation, no extra words.`

	user := fmt.Sprintf("Name: %s\nAddress: %s\nTypes: %s",
		in.Name,
		in.Address,
		strings.Join(in.TypeHints, ", "),
	)

	return domain.ChatPrompt{
		System:          system,
		User:            user,
		MaxOutputTokens: classificationMaxOutputTokens,
		Temperature:     0,
	}
}
