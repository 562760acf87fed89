// Package summarize calls the external content producers: a completion API
// for the summary text and a transcript API for videos. Both are opaque to
// the rest of the service.
package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
)

const (
	maxContentChars = 12000
	maxRetries      = 3
)

var (
	videoIDPattern = regexp.MustCompile(`(?:v=|/)([0-9A-Za-z_-]{11})`)
	tagPattern     = regexp.MustCompile(`(?s)<(script|style|nav|footer|iframe)[^>]*>.*?</\s*(?:script|style|nav|footer|iframe)\s*>|<[^>]+>`)
	titlePattern   = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	spacePattern   = regexp.MustCompile(`\s+`)
)

type Result struct {
	Title   string
	Summary string
	Type    string
}

type Config struct {
	CompletionURL   string
	APIKey          string
	TranscriptURL   string
	TranscriptToken string
}

type Client struct {
	http *http.Client
	cfg  Config
}

func NewClient(cfg Config) *Client {
	return &Client{
		http: &http.Client{Timeout: 60 * time.Second},
		cfg:  cfg,
	}
}

// IsVideoURL reports whether the URL points at a video the transcript API can
// handle.
func IsVideoURL(url string) bool {
	return strings.Contains(url, "youtube.com") || strings.Contains(url, "youtu.be")
}

// Summarize fetches the content behind url (transcript for videos, page text
// otherwise) and runs it through the completion API. Fetches retry with
// exponential backoff.
func (c *Client) Summarize(ctx context.Context, url string) (Result, error) {
	var title, content, kind string
	var err error

	if IsVideoURL(url) {
		kind = "video"
		title, content, err = c.fetchTranscriptWithRetry(ctx, url)
	} else {
		kind = "website"
		title, content, err = c.fetchPageWithRetry(ctx, url)
	}
	if err != nil {
		return Result{}, err
	}

	if len(content) > maxContentChars {
		content = content[:maxContentChars]
	}

	summary, err := c.complete(ctx, content)
	if err != nil {
		return Result{}, err
	}

	return Result{Title: title, Summary: summary, Type: kind}, nil
}

func (c *Client) fetchTranscriptWithRetry(ctx context.Context, url string) (string, string, error) {
	return retry(ctx, func() (string, string, error) {
		return c.fetchTranscript(ctx, url)
	})
}

func (c *Client) fetchPageWithRetry(ctx context.Context, url string) (string, string, error) {
	return retry(ctx, func() (string, string, error) {
		return c.fetchPage(ctx, url)
	})
}

func retry(ctx context.Context, fn func() (string, string, error)) (string, string, error) {
	delay := time.Second
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		title, content, err := fn()
		if err == nil {
			return title, content, nil
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return "", "", ctx.Err()
		case <-time.After(delay):
			delay *= 2
		}
	}
	return "", "", lastErr
}

func (c *Client) fetchTranscript(ctx context.Context, url string) (string, string, error) {
	match := videoIDPattern.FindStringSubmatch(url)
	if match == nil {
		return "", "", fmt.Errorf("no video id in url")
	}

	body, err := json.Marshal(map[string]any{"ids": []string{match[1]}})
	if err != nil {
		return "", "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TranscriptURL, bytes.NewReader(body))
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Authorization", "Basic "+c.cfg.TranscriptToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("transcript API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("transcript API returned %d", resp.StatusCode)
	}

	var transcripts []struct {
		Title string `json:"title"`
		Text  string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&transcripts); err != nil {
		return "", "", fmt.Errorf("decode transcript response: %w", err)
	}
	if len(transcripts) == 0 || transcripts[0].Text == "" {
		return "", "", fmt.Errorf("no transcript found")
	}

	title := transcripts[0].Title
	if title == "" {
		title = "Video"
	}
	return title, transcripts[0].Text, nil
}

func (c *Client) fetchPage(ctx context.Context, url string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", "", err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("page fetch returned %d", resp.StatusCode)
	}

	html, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return "", "", fmt.Errorf("read page: %w", err)
	}

	title := "Web Article"
	if m := titlePattern.FindSubmatch(html); m != nil {
		if t := strings.TrimSpace(string(m[1])); t != "" {
			title = t
		}
	}

	text := tagPattern.ReplaceAllString(string(html), " ")
	text = strings.TrimSpace(spacePattern.ReplaceAllString(text, " "))
	if text == "" {
		return "", "", fmt.Errorf("no readable content")
	}
	return title, text, nil
}

func (c *Client) complete(ctx context.Context, content string) (string, error) {
	payload, err := json.Marshal(map[string]any{
		"model": "gpt-4o-mini",
		"messages": []map[string]string{
			{"role": "system", "content": "Summarize the following content in a few concise paragraphs."},
			{"role": "user", "content": content},
		},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.CompletionURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("completion API returned %d", resp.StatusCode)
	}

	var completion struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", fmt.Errorf("decode completion response: %w", err)
	}
	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("empty completion")
	}
	return completion.Choices[0].Message.Content, nil
}
