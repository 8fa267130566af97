package services

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"os"
	"strings"
	"time"

	"chinosrs/internal/config"
	internalhttp "chinosrs/internal/http"
	"chinosrs/internal/logger"
)

var azureClient = internalhttp.AzureTTSClient

// azureVoicePool are the zh-CN neural voices used when random voice
// selection is enabled.
var azureVoicePool = []string{
	"zh-CN-XiaoxiaoNeural",
	"zh-CN-XiaoyiNeural",
	"zh-CN-YunjianNeural",
	"zh-CN-YunxiNeural",
	"zh-CN-YunxiaNeural",
	"zh-CN-YunyangNeural",
	"zh-CN-XiaobeiNeural",
	"zh-CN-XiaochenNeural",
	"zh-CN-XiaohanNeural",
	"zh-CN-XiaomengNeural",
	"zh-CN-XiaomoNeural",
	"zh-CN-XiaoqiuNeural",
	"zh-CN-XiaoruiNeural",
	"zh-CN-XiaoshuangNeural",
	"zh-CN-XiaoyanNeural",
	"zh-CN-XiaoyouNeural",
	"zh-CN-XiaozhenNeural",
	"zh-CN-YunfengNeural",
	"zh-CN-YunhaoNeural",
}

// AzureTTSEngine synthesizes speech through Azure Cognitive Services.
type AzureTTSEngine struct {
	key         string
	region      string
	voice       string
	speed       float64
	randomVoice bool
	endpoint    string
	rng         *rand.Rand
}

func NewAzureTTSEngine(key, region, voice string, speed float64, randomVoice bool) *AzureTTSEngine {
	if region == "" {
		region = config.DefaultAzureRegion
	}
	if voice == "" {
		voice = config.DefaultAzureVoice
	}
	if speed <= 0 {
		speed = 1.0
	}
	return &AzureTTSEngine{
		key:         key,
		region:      region,
		voice:       voice,
		speed:       speed,
		randomVoice: randomVoice,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (a *AzureTTSEngine) Name() string { return "azure" }

// Available verifies the subscription key is set.
func (a *AzureTTSEngine) Available() error {
	if a.key == "" {
		return fmt.Errorf("Azure TTS key is required (set AZURE_TTS_KEY in .env)")
	}
	return nil
}

// Workers returns the parallelism this engine tolerates. The free tier is
// tight, so keep it low.
func (a *AzureTTSEngine) Workers() int { return config.WorkersAzureTTS }

func (a *AzureTTSEngine) pickVoice() string {
	if a.randomVoice {
		return azureVoicePool[a.rng.Intn(len(azureVoicePool))]
	}
	return a.voice
}

// prosodyRate renders the speed as an SSML rate attribute ("+10%", "-20%").
func prosodyRate(speed float64) string {
	pct := int(math.Round((speed - 1.0) * 100))
	return fmt.Sprintf("%+d%%", pct)
}

func escapeSSML(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "'", "&apos;")
	return r.Replace(s)
}

// Synthesize posts an SSML document and writes the returned MP3 to
// outputPath. 429 responses back off exponentially up to AzureMaxBackoff.
func (a *AzureTTSEngine) Synthesize(ctx context.Context, text, outputPath string) error {
	if err := a.Available(); err != nil {
		return err
	}
	if text == "" {
		return fmt.Errorf("empty text provided")
	}

	voice := a.pickVoice()
	ssml := fmt.Sprintf(
		`<speak version='1.0' xml:lang='zh-CN'><voice name='%s'><prosody rate='%s'>%s</prosody></voice></speak>`,
		voice, prosodyRate(a.speed), escapeSSML(text))

	endpoint := a.endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf(config.AzureTTSEndpointFormat, a.region)
	}
	delay := time.Second

	for attempt := 1; attempt <= config.AzureMaxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(ssml))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Ocp-Apim-Subscription-Key", a.key)
		req.Header.Set("Content-Type", "application/ssml+xml")
		req.Header.Set("X-Microsoft-OutputFormat", config.AzureOutputFormat)
		req.Header.Set("User-Agent", "chinosrs")

		resp, err := azureClient.Do(req)
		if err != nil {
			return fmt.Errorf("Azure TTS request failed: %w", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			if attempt == config.AzureMaxRetries {
				return fmt.Errorf("Azure TTS rate limited after %d attempts", attempt)
			}
			logger.Warn("Azure rate limited, retrying in %s (attempt %d/%d)",
				delay, attempt, config.AzureMaxRetries)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
			delay *= 2
			if delay > config.AzureMaxBackoff {
				delay = config.AzureMaxBackoff
			}
			continue
		}

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			resp.Body.Close()
			return fmt.Errorf("Azure TTS error (status %d): %s", resp.StatusCode, string(body))
		}

		out, err := os.Create(outputPath)
		if err != nil {
			resp.Body.Close()
			return fmt.Errorf("failed to create %s: %w", outputPath, err)
		}
		_, copyErr := io.Copy(out, resp.Body)
		resp.Body.Close()
		out.Close()
		if copyErr != nil {
			os.Remove(outputPath)
			return fmt.Errorf("failed to write audio: %w", copyErr)
		}

		// A short gap between successful calls keeps the free tier happy.
		select {
		case <-time.After(config.AzureRequestGap):
		case <-ctx.Done():
		}
		return nil
	}
	return fmt.Errorf("Azure TTS failed after %d attempts", config.AzureMaxRetries)
}
