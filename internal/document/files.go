package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FromText builds a document from raw text.
func FromText(text, title string, opts ...Option) (Document, error) {
	return New(title, text, append([]Option{WithSource(SourceText)}, opts...)...)
}

// FromFile reads path as text. The title defaults to the file name without extension.
func FromFile(path string, opts ...Option) (Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read %s: %w", path, err)
	}
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	base := []Option{WithSource(SourceFile)}
	return New(stem, string(raw), append(base, opts...)...)
}

// FromFiles loads every path in order and stops at the first failure.
func FromFiles(paths []string) ([]Document, error) {
	docs := make([]Document, 0, len(paths))
	for _, p := range paths {
		d, err := FromFile(p)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, nil
}
