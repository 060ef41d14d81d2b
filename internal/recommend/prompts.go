package recommend

import (
	"fmt"
	"strings"

	"github.com/desertthunder/promptdj/internal/classify"
	"github.com/desertthunder/promptdj/internal/models"
)

// functionCallSystemPrompt locks the model to genre and to the search_real_music call, listing the
// artists of every excluded song. retry > 0 adds an extra push toward new artists.
func functionCallSystemPrompt(c *classify.Classifier, genre models.Genre, excluded models.KeySet, retry int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are a music search expert. For every request, call the search_real_music function and nothing else.\n\n")
	b.WriteString("Never answer with plain text; respond only with a function call.\n\n")
	fmt.Fprintf(&b, "**Important: recommend \"%s\" only!**\n", genre)
	fmt.Fprintf(&b, "- Pick %s artists only: %s\n", genre, c.GenreExamples(genre))
	b.WriteString("- Never recommend any other genre\n")
	b.WriteString("- Choose popular, well-known songs that really exist")

	if artists := excluded.Artists(); len(artists) > 0 {
		b.WriteString("\n\n**Artists to skip, already recommended:**\n")
		for _, a := range artists {
			fmt.Fprintf(&b, "- %s\n", a)
		}
		fmt.Fprintf(&b, "\n**Important:** these artists were already recommended; pick a song by a different %s artist.", genre)
		if retry > 0 {
			fmt.Fprintf(&b, "\n\n**🔄 Retry %d:** choose a song by an artist you have not suggested yet.", retry)
		}
	}

	fmt.Fprintf(&b, "\n\nExamples:\n")
	fmt.Fprintf(&b, "- Feeling sad → use the sad context with a comforting %s song\n", genre)
	fmt.Fprintf(&b, "- Studying → use the study context with a focused %s song\n", genre)
	fmt.Fprintf(&b, "- Working out → use the workout context with an energetic %s song\n\n", genre)
	fmt.Fprintf(&b, "Always call search_real_music with a %s song!", genre)

	return b.String()
}

// userPrompt wraps the request with recent turns and playlist hints.
func userPrompt(prompt string, recentTurns []string, hints classify.Hints) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Request: %q\n\n", prompt)
	if len(recentTurns) > 0 {
		b.WriteString("Recent conversation:\n")
		for _, turn := range recentTurns {
			fmt.Fprintf(&b, "- %s\n", turn)
		}
		b.WriteString("\n")
	}
	if len(hints.Playlists) > 0 {
		fmt.Fprintf(&b, "Playlist ideas: %s\n\n", strings.Join(hints.Playlists, ", "))
	}
	b.WriteString("Recommend a real song for this request with the search_real_music function.")

	return b.String()
}

// retryPrompt restates prompt with the full exclusion list.
func retryPrompt(prompt string, excluded models.KeySet, attempt int) string {
	var b strings.Builder

	b.WriteString(prompt)
	b.WriteString("\n\n**Already recommended, do not recommend these:**\n")
	for _, key := range excluded.Keys() {
		fmt.Fprintf(&b, "- %s\n", key)
	}
	b.WriteString("\n**Requirements:**\n")
	b.WriteString("- Pick a completely different song from a different artist\n")
	fmt.Fprintf(&b, "- This is attempt %d, choose carefully", attempt+1)

	return b.String()
}

// plainSystemPrompt asks for exactly one real song in free text.
func plainSystemPrompt(genre models.Genre) string {
	return fmt.Sprintf("You only recommend music that really exists.\n\n"+
		"Never invent songs. Recommend only well-known %s songs that really exist, the kind found on real "+
		"playlists for the user's situation. Only recommend songs that have an official music video.", genre)
}

// plainPrompt fixes the reply template for the unconstrained fallback.
func plainPrompt(prompt string) string {
	return prompt + `

**Instructions:**
- Recommend only songs that really exist
- Never make up songs or artists
- Recommend exactly one song
- Use the exact title of a song with a music video on YouTube
- Pick a well-known song that real playlists for this situation include

**Reply format:**
[A short empathetic line]

**Recommendation: [real artist] - [real song title]**

[2-3 sentences on the playlist context and why it fits]

**Music video:** "[artist] [song] official mv"`
}
