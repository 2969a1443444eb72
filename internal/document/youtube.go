package document

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"
)

var (
	ErrInvalidYouTubeURL = errors.New("invalid youtube url")
	ErrNoTranscript      = errors.New("no transcript available")
)

var youtubeIDPattern = regexp.MustCompile(`^(?:https?://)?(?:www\.)?(?:youtube\.com/watch\?v=|youtu\.be/)([a-zA-Z0-9_-]{11})`)

// YouTubeIDFromURL extracts the 11 character video id from a watch or youtu.be URL.
func YouTubeIDFromURL(raw string) (string, error) {
	m := youtubeIDPattern.FindStringSubmatch(raw)
	if m == nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidYouTubeURL, raw)
	}
	return m[1], nil
}

type timedText struct {
	Lines []struct {
		Start string `xml:"start,attr"`
		Dur   string `xml:"dur,attr"`
		Text  string `xml:",chardata"`
	} `xml:"text"`
}

// FromYouTube builds a document from a video's caption track.
func (l *Loader) FromYouTube(ctx context.Context, videoURL string, opts ...Option) (Document, error) {
	id, err := YouTubeIDFromURL(videoURL)
	if err != nil {
		return Document{}, err
	}

	title, err := l.youtubeTitle(ctx, videoURL)
	if err != nil {
		return Document{}, err
	}
	transcript, err := l.youtubeTranscript(ctx, id)
	if err != nil {
		return Document{}, err
	}
	log.Infof("fetched transcript for %s: title=%q, %d chars", id, title, len(transcript))

	base := []Option{WithSource(SourceYouTube), WithURL(videoURL)}
	return New(title, transcript, append(base, opts...)...)
}

func (l *Loader) youtubeTitle(ctx context.Context, videoURL string) (string, error) {
	body, err := l.get(ctx, l.oembedURL, map[string]string{"url": videoURL, "format": "json"})
	if err != nil {
		return "", err
	}
	var meta struct {
		Title string `json:"title"`
	}
	if err := json.Unmarshal(body, &meta); err != nil {
		return "", fmt.Errorf("decode oembed: %w", err)
	}
	return strings.TrimSpace(meta.Title), nil
}

func (l *Loader) youtubeTranscript(ctx context.Context, id string) (string, error) {
	body, err := l.get(ctx, l.transcriptURL, map[string]string{"v": id, "lang": l.lang})
	if err != nil {
		return "", err
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return "", fmt.Errorf("%w: %s", ErrNoTranscript, id)
	}
	var tt timedText
	if err := xml.Unmarshal(body, &tt); err != nil {
		return "", fmt.Errorf("decode transcript: %w", err)
	}
	lines := make([]string, 0, len(tt.Lines))
	for _, line := range tt.Lines {
		text := strings.TrimSpace(html.UnescapeString(line.Text))
		if text != "" {
			lines = append(lines, text)
		}
	}
	if len(lines) == 0 {
		return "", fmt.Errorf("%w: %s", ErrNoTranscript, id)
	}
	return strings.Join(lines, "\n"), nil
}
