package chunker

import (
	"regexp"
	"strings"

	"remedyrag/internal/domain"
)

// ChunkType tags chunks produced by the sliding sentence window.
const ChunkType = "flat_window"

// FlatWindow splits remedy text into overlapping sentence windows, the
// chunking scheme the corpus file is built from.
type FlatWindow struct {
	sentencesPerWindow int
	overlapSentences   int
	splitter           *regexp.Regexp
}

func NewFlatWindow(sentencesPerWindow, overlapSentences int) *FlatWindow {
	if sentencesPerWindow <= 0 {
		sentencesPerWindow = 5
	}
	if overlapSentences < 0 {
		overlapSentences = 0
	}
	return &FlatWindow{
		sentencesPerWindow: sentencesPerWindow,
		overlapSentences:   overlapSentences,
		splitter:           regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`),
	}
}

// Chunk windows the remedy text into chunks carrying the remedy's name
// and position in the source material.
func (c *FlatWindow) Chunk(remedyName string, remedyIndex int, text string) []domain.Chunk {
	sentences := c.splitter.FindAllString(text, -1)
	if len(sentences) == 0 {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return nil
		}
		sentences = []string{trimmed}
	}
	for i := range sentences {
		sentences[i] = strings.TrimSpace(sentences[i])
	}
	var chunks []domain.Chunk
	i := 0
	for i < len(sentences) {
		end := i + c.sentencesPerWindow
		if end > len(sentences) {
			end = len(sentences)
		}
		chunks = append(chunks, domain.Chunk{
			Text:        strings.Join(sentences[i:end], " "),
			RemedyName:  remedyName,
			RemedyIndex: remedyIndex,
			ChunkType:   ChunkType,
		})
		if end == len(sentences) {
			break
		}
		i = end - c.overlapSentences
		if i < 0 {
			i = 0
		}
	}
	return chunks
}
