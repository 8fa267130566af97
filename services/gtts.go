package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"

	"chinosrs/internal/config"
	internalhttp "chinosrs/internal/http"
)

var googleTTSClient = internalhttp.GoogleTTSClient

// GoogleTTSEngine synthesizes speech through the public translate_tts
// endpoint. It needs no credentials but must be used gently.
type GoogleTTSEngine struct {
	lang     string
	endpoint string
}

func NewGoogleTTSEngine(lang string) *GoogleTTSEngine {
	if lang == "" {
		lang = config.GoogleTTSLang
	}
	return &GoogleTTSEngine{lang: lang, endpoint: config.GoogleTTSEndpoint}
}

func (g *GoogleTTSEngine) Name() string { return "gtts" }

// Available always succeeds: the endpoint is unauthenticated.
func (g *GoogleTTSEngine) Available() error { return nil }

// Workers returns the parallelism this engine tolerates.
func (g *GoogleTTSEngine) Workers() int { return config.WorkersGoogleTTS }

// Synthesize fetches an MP3 for text and writes it to outputPath.
func (g *GoogleTTSEngine) Synthesize(ctx context.Context, text, outputPath string) error {
	if text == "" {
		return fmt.Errorf("empty text provided")
	}

	params := url.Values{}
	params.Set("ie", "UTF-8")
	params.Set("q", text)
	params.Set("tl", g.lang)
	params.Set("client", "tw-ob")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		g.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64)")

	resp, err := internalhttp.DoWithRetryContext(ctx, googleTTSClient, req, internalhttp.DefaultRetryConfig())
	if err != nil {
		return fmt.Errorf("TTS request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("TTS error (status %d): %s", resp.StatusCode, string(body))
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", outputPath, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		os.Remove(outputPath)
		return fmt.Errorf("failed to write audio: %w", err)
	}
	return nil
}
