package summarizer

import (
	"strings"

	"zerosum/internal/document"
	"zerosum/internal/tokenizer"
)

// Split partitions doc into chunks that each count fewer than maxTokens tokens.
// A document at or above the budget is halved by word count and each half is
// split again. A single word is never divided, so a one-word chunk may still
// exceed the budget. Chunks keep doc's identity and appear in reading order.
// Every chunk is a deep copy; none shares tags or metadata with doc.
func Split(doc document.Document, maxTokens int, counter tokenizer.Counter, model string) ([]document.Document, error) {
	n, err := counter.Count(doc.Text, model)
	if err != nil {
		return nil, err
	}
	if n < maxTokens {
		return []document.Document{doc.Clone()}, nil
	}

	words := strings.Fields(doc.Text)
	if len(words) < 2 {
		return []document.Document{doc.Clone()}, nil
	}
	half := len(words) / 2

	first, err := Split(doc.Clone().WithText(strings.Join(words[:half], " ")), maxTokens, counter, model)
	if err != nil {
		return nil, err
	}
	second, err := Split(doc.Clone().WithText(strings.Join(words[half:], " ")), maxTokens, counter, model)
	if err != nil {
		return nil, err
	}
	return append(first, second...), nil
}

// Merge joins chunks back into one document carrying the first chunk's
// identity and metadata. Texts are joined with a single space. Chunks must
// come from one Split call; Merge panics when chunks is empty.
func Merge(chunks []document.Document) document.Document {
	if len(chunks) == 0 {
		panic("summarizer: merge of an empty chunk sequence")
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	return chunks[0].Clone().WithText(strings.Join(texts, " "))
}
