// Package config provides centralized constants for the chinosrs pipeline.
package config

import "time"

// Worker pool sizes (tuned per provider)
const (
	WorkersOpenAI    = 8 // chat completions, keep under per-minute token limits
	WorkersGoogleTTS = 4 // unauthenticated endpoint, be gentle
	WorkersAzureTTS  = 2 // free tier allows ~20 requests/min
)

// Retry settings
const (
	DefaultMaxRetries     = 3
	DefaultRetryDelayBase = time.Second
	AzureMaxRetries       = 5
	AzureMaxBackoff       = 30 * time.Second
)

// HTTP client settings
const (
	HTTPTimeout             = 2 * time.Minute
	HTTPMaxIdleConns        = 10
	HTTPMaxIdleConnsPerHost = 10
	HTTPIdleConnTimeout     = 90 * time.Second
)

// API endpoints
const (
	OpenAIChatEndpoint = "https://api.openai.com/v1/chat/completions"
	GoogleTTSEndpoint  = "https://translate.google.com/translate_tts"
	// AzureTTSEndpointFormat takes the region as its single argument.
	AzureTTSEndpointFormat = "https://%s.tts.speech.microsoft.com/cognitiveservices/v1"
)

// LLM settings
const (
	OpenAIEnrichModel     = "gpt-4o-mini"
	EnrichmentTemperature = 0.2
	// Rough per-call token estimate used for cost reporting (~150 in + ~400 out).
	EnrichTokensPerCall = 550
	// gpt-4o-mini pricing per 1M tokens.
	OpenAIInputCostPerM  = 0.15
	OpenAIOutputCostPerM = 0.60
)

// AnkiConnect settings
const (
	AnkiConnectVersion  = 6
	AnkiConnectURL      = "http://localhost:8765"
	DefaultDeckName     = "Chino SRS"
	NoteUploadBatchSize = 50
	NotesInfoChunkSize  = 1000
)

// Audio settings
const (
	// MinAudioFileSize marks smaller TTS outputs as corrupt.
	MinAudioFileSize = 1000
	AudioHashLength  = 8
	// SentenceNamePrefixLen limits how much of the sentence lands in the filename.
	SentenceNamePrefixLen = 30
	AzureOutputFormat     = "audio-16khz-128kbitrate-mono-mp3"
	// AzureRequestGap keeps the free tier happy between successful calls.
	AzureRequestGap = 150 * time.Millisecond
)

// TTS defaults
const (
	GoogleTTSLang      = "zh-CN"
	DefaultAzureVoice  = "zh-CN-XiaoxiaoNeural"
	DefaultAzureRegion = "eastus"
)

// Sort key settings
const (
	SortKeyRandomSpace = 10000
	// BucketProbeLimit is how many occupied slots a dedup probe tolerates
	// before declaring the frequency bucket saturated and moving on.
	BucketProbeLimit = 1000
	MaxFreqBucket    = 99
	UnknownHSK       = 99
	UnknownFreq      = 99
)

// Progress stage boundaries for the full pipeline (0-100%)
const (
	ProgressVocabStart = 0
	ProgressVocabEnd   = 50
	ProgressAudioStart = 50
	ProgressAudioEnd   = 80
	ProgressDeckStart  = 80
	ProgressDeckEnd    = 100
)
