package service

import (
	"regexp"
	"strings"
)

// ChunkConfig controls how chapter text is split into passages.
type ChunkConfig struct {
	// TargetChars is the size a chunk is grown towards; a chunk is closed
	// before adding a sentence that would push it past this limit.
	TargetChars int
	// MinChars is the minimum length of a kept chunk; shorter chunks are
	// discarded.
	MinChars int
}

// DefaultChunkConfig provides the standard chunking parameters.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		TargetChars: 1000,
		MinChars:    50,
	}
}

var sentenceSplitter = regexp.MustCompile(`(?m)(?U)[^.!?]+[.!?]+`)

// splitSentences splits text on '.', '!' and '?' boundaries, keeping the
// terminator with its sentence. A trailing fragment without a terminator is
// kept as a final sentence.
func splitSentences(text string) []string {
	locs := sentenceSplitter.FindAllStringIndex(text, -1)
	sentences := make([]string, 0, len(locs)+1)
	last := 0
	for _, loc := range locs {
		if s := strings.TrimSpace(text[loc[0]:loc[1]]); s != "" {
			sentences = append(sentences, s)
		}
		last = loc[1]
	}
	if rest := strings.TrimSpace(text[last:]); rest != "" {
		sentences = append(sentences, rest)
	}
	return sentences
}

// ChunkText splits raw chapter text into sentence-aligned chunks. Sentences
// are accumulated greedily until adding the next one would exceed
// cfg.TargetChars, at which point the chunk is closed. Sentences are never
// split; a single sentence longer than the target becomes its own chunk.
// Chunks shorter than cfg.MinChars are discarded. The function is pure and
// deterministic.
func ChunkText(text string, cfg ChunkConfig) []string {
	if cfg.TargetChars <= 0 {
		cfg = DefaultChunkConfig()
	}

	clean := strings.TrimSpace(text)
	if clean == "" {
		return nil
	}

	sentences := splitSentences(clean)

	var chunks []string
	var current strings.Builder
	for _, sentence := range sentences {
		if current.Len() > 0 && current.Len()+1+len(sentence) > cfg.TargetChars {
			chunks = appendChunk(chunks, current.String(), cfg.MinChars)
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(sentence)
	}
	chunks = appendChunk(chunks, current.String(), cfg.MinChars)

	return chunks
}

func appendChunk(chunks []string, chunk string, minChars int) []string {
	chunk = strings.TrimSpace(chunk)
	if len(chunk) < minChars {
		return chunks
	}
	return append(chunks, chunk)
}
