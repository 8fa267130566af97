package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"chinosrs/internal/config"
	internalhttp "chinosrs/internal/http"
	"chinosrs/internal/logger"
	"chinosrs/models"
)

// Use shared HTTP client with connection pooling
var openaiClient = internalhttp.OpenAIClient

// enrichSystemPrompt instructs the model to produce didactic Spanish content
// for Mandarin vocabulary as a strict JSON object.
const enrichSystemPrompt = `Eres un hablante nativo de chino mandarín y español nativo. Enseñas chino a hispanohablantes.
Tarea: dada una palabra en hanzi y pinyin, genera contenido DIDÁCTICO en español para un CSV.
Devuelve SIEMPRE un JSON con las claves exactas:
{
  "definition": string,
  "example_sentence": string[3],
  "example_translation": string[3],
  "tips": string,
  "collocations": string[3..5],
  "register": one of ["reg:colloquial","reg:neutral","reg:formal","reg:literary"],
  "tags_seed": string | string[]  // de entre: gram:ba, gram:bei, gram:le, gram:guo, gram:zhe, gram:de, gram:resultative, gram:potential
}
Requisitos:
- "definition": breve, clara y natural; NO copies textos en inglés; explica como a un alumno hispanohablante.
- "example_sentence": array de 3 oraciones SOLO en caracteres chinos (hanzi). NO incluyas pinyin, NO incluyas traducción. Solo hanzi.
- "example_translation": array de 3 traducciones en español, correspondientes a las 3 oraciones anteriores.
- "tips": notas de uso, matices y construcciones comunes.
- "collocations": combinaciones frecuentes (3–5), en chino, con glosa española entre paréntesis.
- Si no aplica ninguna etiqueta gramatical, deja "tags_seed": "".`

// OpenAIService enriches vocabulary entries through the chat completions API.
type OpenAIService struct {
	apiKey   string
	model    string
	endpoint string
}

// NewOpenAIService creates an enrichment service. An empty model selects the
// default.
func NewOpenAIService(apiKey, model string) *OpenAIService {
	if model == "" {
		model = config.OpenAIEnrichModel
	}
	return &OpenAIService{apiKey: apiKey, model: model, endpoint: config.OpenAIChatEndpoint}
}

// CheckAPIKey verifies the API key is set.
func (s *OpenAIService) CheckAPIKey() error {
	if s.apiKey == "" {
		return fmt.Errorf("OpenAI API key is required (set OPENAI_API_KEY in .env)")
	}
	return nil
}

// Model returns the configured model name.
func (s *OpenAIService) Model() string {
	return s.model
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Enrich generates the didactic content for one vocabulary entry.
func (s *OpenAIService) Enrich(ctx context.Context, hanzi, pinyin string, pos, meanings []string) (*models.Enrichment, error) {
	if err := s.CheckAPIKey(); err != nil {
		return nil, err
	}
	if hanzi == "" {
		return nil, fmt.Errorf("empty hanzi provided")
	}

	userContent := fmt.Sprintf(`Genera contenido para:
hanzi: %s
pinyin: %s
pos: %s
meanings: %s

IMPORTANTE: example_sentence debe ser un array de 3 strings, cada uno SOLO con caracteres chinos.
Ejemplo correcto:
"example_sentence": ["这件首饰非常贵重。", "他把贵重的文件放在保险箱里。", "这幅画是一个贵重的艺术品。"]
"example_translation": ["Esta joya es muy valiosa.", "Él guardó los documentos valiosos en la caja fuerte.", "Esta pintura es una obra de arte valiosa."]`,
		hanzi, pinyin, strings.Join(pos, ", "), strings.Join(meanings, "; "))

	reqBody := chatRequest{
		Model:       s.model,
		Temperature: config.EnrichmentTemperature,
		Messages: []chatMessage{
			{Role: "system", Content: enrichSystemPrompt},
			{Role: "user", Content: userContent},
		},
	}
	reqBody.ResponseFormat.Type = "json_object"

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := internalhttp.DoWithRetryContext(ctx, openaiClient, req, internalhttp.DefaultRetryConfig())
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp chatResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != nil {
			return nil, fmt.Errorf("OpenAI API error: %s", errResp.Error.Message)
		}
		return nil, fmt.Errorf("OpenAI API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("OpenAI returned no choices")
	}

	content := parsed.Choices[0].Message.Content
	var enrichment models.Enrichment
	if err := json.Unmarshal([]byte(content), &enrichment); err != nil {
		logger.Debug("unparseable enrichment for %s: %s", hanzi, content)
		return nil, fmt.Errorf("enrichment for %s is not valid JSON: %w", hanzi, err)
	}

	return &enrichment, nil
}

// EstimateCost estimates the dollar cost of calls completed so far.
func EstimateCost(totalTokens int) float64 {
	t := float64(totalTokens)
	return t*config.OpenAIInputCostPerM/1_000_000 + t*config.OpenAIOutputCostPerM/1_000_000
}
