package document

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"zerosum/pkg/logger"
)

const (
	defaultUserAgent     = "zerosum/1.0 (+https://github.com)"
	defaultOEmbedURL     = "https://www.youtube.com/oembed"
	defaultTranscriptURL = "https://www.youtube.com/api/timedtext"
)

var log = logger.WithPrefix("Loader")

// Loader fetches documents over HTTP.
type Loader struct {
	client        *resty.Client
	oembedURL     string
	transcriptURL string
	lang          string
}

type LoaderOption func(*Loader)

// WithHTTPClient replaces the resty client, e.g. to set proxies or timeouts.
func WithHTTPClient(c *resty.Client) LoaderOption {
	return func(l *Loader) { l.client = c }
}

// WithYouTubeEndpoints points the YouTube loader at alternative oEmbed and
// timedtext endpoints.
func WithYouTubeEndpoints(oembedURL, transcriptURL string) LoaderOption {
	return func(l *Loader) {
		l.oembedURL = oembedURL
		l.transcriptURL = transcriptURL
	}
}

// WithTranscriptLanguage selects the caption track language, "en" by default.
func WithTranscriptLanguage(lang string) LoaderOption {
	return func(l *Loader) { l.lang = lang }
}

func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		client: resty.New().
			SetTimeout(30*time.Second).
			SetHeader("User-Agent", defaultUserAgent),
		oembedURL:     defaultOEmbedURL,
		transcriptURL: defaultTranscriptURL,
		lang:          "en",
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Loader) get(ctx context.Context, target string, query map[string]string) ([]byte, error) {
	resp, err := l.client.R().
		SetContext(ctx).
		SetQueryParams(query).
		Get(target)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", target, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch %s: status %d", target, resp.StatusCode())
	}
	return resp.Body(), nil
}

// FromWebsite downloads a page and keeps its main readable content.
func (l *Loader) FromWebsite(ctx context.Context, pageURL string, opts ...Option) (Document, error) {
	body, err := l.get(ctx, pageURL, nil)
	if err != nil {
		return Document{}, err
	}
	title, text, err := extractArticle(body)
	if err != nil {
		return Document{}, fmt.Errorf("extract %s: %w", pageURL, err)
	}
	if title == "" {
		if u, perr := url.Parse(pageURL); perr == nil {
			title = u.Host
		}
	}
	log.Infof("fetched %s: title=%q, %d chars", pageURL, title, len(text))
	base := []Option{WithSource(SourceWebsite), WithURL(pageURL)}
	return New(title, text, append(base, opts...)...)
}

// extractArticle returns the page title and the text of its main content.
func extractArticle(page []byte) (string, string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return "", "", fmt.Errorf("parse html: %w", err)
	}
	title := extractTitle(doc)

	doc.Find("script, style, noscript, nav, footer, header, aside, iframe, form").Remove()

	content := doc.Find("article").First()
	if content.Length() == 0 {
		content = doc.Find("main").First()
	}
	if content.Length() == 0 {
		content = doc.Find("body")
	}
	inner, err := content.Html()
	if err != nil {
		return "", "", fmt.Errorf("render content: %w", err)
	}

	converter := md.NewConverter("", true, nil)
	text, err := converter.ConvertString(inner)
	if err != nil {
		return "", "", fmt.Errorf("convert content: %w", err)
	}
	return title, strings.TrimSpace(text), nil
}

func extractTitle(doc *goquery.Document) string {
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	if og, ok := doc.Find("meta[property='og:title']").Attr("content"); ok && strings.TrimSpace(og) != "" {
		return strings.TrimSpace(og)
	}
	if tw, ok := doc.Find("meta[name='twitter:title']").Attr("content"); ok && strings.TrimSpace(tw) != "" {
		return strings.TrimSpace(tw)
	}
	return strings.TrimSpace(doc.Find("h1").First().Text())
}
