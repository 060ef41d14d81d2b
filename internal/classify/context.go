package classify

import (
	"strings"

	"github.com/desertthunder/promptdj/internal/models"
)

// Hints are canned context strings selected by a prompt's tags.
type Hints struct {
	Playlists []string
	Reviews   []string
	Tags      []string
}

// Empty reports whether no tag produced hints.
func (h Hints) Empty() bool {
	return len(h.Playlists) == 0 && len(h.Reviews) == 0 && len(h.Tags) == 0
}

// ExtractContext tags prompt with every activity and mood whose keywords it contains.
//
// Tags are listed in table order with no ranking.
func (c *Classifier) ExtractContext(prompt string) models.ExtractedContext {
	text := strings.ToLower(prompt)
	return models.ExtractedContext{
		Activities: matchCategories(text, c.rules.Activities),
		Moods:      matchCategories(text, c.rules.Moods),
	}
}

func matchCategories(text string, cats []Category) []string {
	out := []string{}
	for _, cat := range cats {
		for _, kw := range cat.Keywords {
			if strings.Contains(text, strings.ToLower(kw)) {
				out = append(out, cat.Name)
				break
			}
		}
	}
	return out
}

// Hints collects the hint sets for every tag in ctx.
func (c *Classifier) Hints(ctx models.ExtractedContext) Hints {
	var h Hints
	for _, tag := range append(append([]string{}, ctx.Activities...), ctx.Moods...) {
		set, ok := c.rules.Hints[tag]
		if !ok {
			continue
		}
		h.Playlists = append(h.Playlists, set.Playlists...)
		h.Reviews = append(h.Reviews, set.Reviews...)
		h.Tags = append(h.Tags, set.Tags...)
	}
	return h
}

// ContextConfidence scores how much the prompt told us: 0.5 base, +0.2 for activities, +0.2 for
// moods, +0.1 for playlist hints, +0.1 when exclusions are active, capped at 1.
func ContextConfidence(ctx models.ExtractedContext, hints Hints, excluded int) float64 {
	score := 0.5
	if len(ctx.Activities) > 0 {
		score += 0.2
	}
	if len(ctx.Moods) > 0 {
		score += 0.2
	}
	if len(hints.Playlists) > 0 {
		score += 0.1
	}
	if excluded > 0 {
		score += 0.1
	}
	return min(score, 1.0)
}

// ExtractContext applies the default rules.
func ExtractContext(prompt string) models.ExtractedContext { return std.ExtractContext(prompt) }
