// Package document holds the Document value passed through the summarizer and
// the loaders that build Documents from text, files, web pages and videos.
package document

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/google/uuid"

	"zerosum/internal/tokenizer"
)

// Source tags where a document came from.
type Source string

const (
	SourceText    Source = "text"
	SourceFile    Source = "file"
	SourceWebsite Source = "website"
	SourceYouTube Source = "youtube"
)

var ErrInvalidDocument = errors.New("invalid document")

// Document is a piece of text plus its identity and provenance. It is passed
// by value; chunk copies made while splitting keep the same ID.
type Document struct {
	ID         uuid.UUID      `json:"uuid"`
	Title      string         `json:"title" validate:"notblank"`
	Text       string         `json:"text" validate:"notblank"`
	URL        string         `json:"url,omitempty" validate:"omitempty,url"`
	Source     Source         `json:"source,omitempty"`
	Embedding  []float64      `json:"embedding,omitempty"`
	Collection string         `json:"collection,omitempty"`
	Tags       []string       `json:"tags"`
	Metadata   map[string]any `json:"metadata"`
}

// Option customises a Document at construction.
type Option func(*Document)

func WithURL(url string) Option {
	return func(d *Document) { d.URL = url }
}

func WithSource(src Source) Option {
	return func(d *Document) { d.Source = src }
}

// WithCollection sets the collection, also known as namespace in some vector stores.
func WithCollection(collection string) Option {
	return func(d *Document) { d.Collection = collection }
}

func WithTags(tags ...string) Option {
	return func(d *Document) { d.Tags = append(d.Tags, tags...) }
}

func WithMetadata(md map[string]any) Option {
	return func(d *Document) {
		if d.Metadata == nil {
			d.Metadata = make(map[string]any, len(md))
		}
		maps.Copy(d.Metadata, md)
	}
}

func WithEmbedding(vec []float64) Option {
	return func(d *Document) { d.Embedding = vec }
}

// WithTitle overrides the title a loader would otherwise derive.
func WithTitle(title string) Option {
	return func(d *Document) { d.Title = title }
}

func WithID(id uuid.UUID) Option {
	return func(d *Document) { d.ID = id }
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("notblank", validators.NotBlank)
	})
	return validate
}

// New builds a Document with a fresh ID. Title and text must not be blank.
func New(title, text string, opts ...Option) (Document, error) {
	d := Document{
		ID:       uuid.New(),
		Title:    title,
		Text:     text,
		Tags:     []string{},
		Metadata: map[string]any{},
	}
	for _, opt := range opts {
		opt(&d)
	}
	if err := getValidator().Struct(d); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return d, nil
}

// WithText returns a shallow copy carrying text. Identity and metadata are shared.
func (d Document) WithText(text string) Document {
	d.Text = text
	return d
}

// Clone returns a deep copy with the same ID.
func (d Document) Clone() Document {
	d.Embedding = slices.Clone(d.Embedding)
	d.Tags = slices.Clone(d.Tags)
	d.Metadata = maps.Clone(d.Metadata)
	return d
}

// IsEmbedded reports whether a vector is attached.
func (d Document) IsEmbedded() bool {
	return d.Embedding != nil
}

// Tokens is the document length under model's encoding.
func (d Document) Tokens(c tokenizer.Counter, model string) (int, error) {
	return c.Count(d.Text, model)
}

func (d Document) String() string {
	return "Document: " + d.Title
}

// Describe renders the document with its token length, e.g. "Document: Intro (812 tokens)".
func (d Document) Describe(c tokenizer.Counter, model string) string {
	n, err := d.Tokens(c, model)
	if err != nil {
		return fmt.Sprintf("Document: %s (? tokens)", d.Title)
	}
	return fmt.Sprintf("Document: %s (%d tokens)", d.Title, n)
}
