package ui

import (
	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/promptdj/internal/models"
)

var _ list.Item = genreItem{}

// genreItem wraps [models.Genre] to implement [list.Item].
type genreItem struct {
	genre    models.Genre
	examples string
}

func (i genreItem) FilterValue() string { return i.genre.Label() }
func (i genreItem) Title() string       { return i.genre.Label() }
func (i genreItem) Description() string {
	if i.examples == "" {
		return string(i.genre)
	}
	return i.examples
}

func genreItems(examples func(models.Genre) string) []list.Item {
	genres := models.Genres()
	items := make([]list.Item, len(genres))
	for i, g := range genres {
		items[i] = genreItem{genre: g, examples: examples(g)}
	}
	return items
}
