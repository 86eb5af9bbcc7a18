package dataset

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/boswallah/course-assistant/models"
)

// BuildChunks cuts each course description into bounded fragments and
// renders one retrievable document per fragment. A course with an empty
// description still yields one chunk so it remains findable by title.
func BuildChunks(courses []models.Course, chunkSize int) []models.DocumentChunk {
	if chunkSize <= 0 {
		chunkSize = 200
	}
	var chunks []models.DocumentChunk
	for _, c := range courses {
		parts := wrapText(c.Description, chunkSize)
		if len(parts) == 0 {
			parts = []string{""}
		}
		languages := strings.Join(c.Languages, ", ")
		for _, part := range parts {
			chunks = append(chunks, models.DocumentChunk{
				ID:      uuid.NewString(),
				Content: chunkText(c, part, languages),
				Metadata: models.ChunkMetadata{
					CourseNo:    c.No,
					CourseTitle: c.Title,
					Audience:    c.Audience,
					Languages:   languages,
				},
			})
		}
	}
	return chunks
}

func chunkText(c models.Course, descriptionChunk, languages string) string {
	return fmt.Sprintf("Course Title: %s\nDescription: %s\nWho This Course is For: %s\nLanguages: %s",
		c.Title, descriptionChunk, c.Audience, languages)
}

// wrapText splits text into fragments of at most width characters, breaking
// on word boundaries. A single word longer than width becomes its own
// fragment rather than being split mid-word.
func wrapText(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var out []string
	var line strings.Builder
	for _, w := range words {
		if line.Len() > 0 && line.Len()+1+len(w) > width {
			out = append(out, line.String())
			line.Reset()
		}
		if line.Len() > 0 {
			line.WriteByte(' ')
		}
		line.WriteString(w)
	}
	if line.Len() > 0 {
		out = append(out, line.String())
	}
	return out
}
