package audio

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/sashabaranov/go-openai"
)

var languageNames = map[string]string{
	"en": "English",
	"ja": "Japanese",
	"de": "German",
	"fr": "French",
	"es": "Spanish",
	"it": "Italian",
	"ru": "Russian",
	"bg": "Bulgarian",
	"zh": "Chinese",
	"ko": "Korean",
}

// OpenAISynthesizer implements Synthesizer with the OpenAI speech API
type OpenAISynthesizer struct {
	client *openai.Client
	config *Config
}

// NewOpenAISynthesizer creates a new OpenAI synthesizer
func NewOpenAISynthesizer(config *Config) (*OpenAISynthesizer, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAISynthesizer{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Synthesize requests MP3 speech for text and copies it to w
func (s *OpenAISynthesizer) Synthesize(ctx context.Context, text, lang string, w io.Writer) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyText
	}

	req := openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(s.config.Model),
		Input:          text,
		Voice:          openai.SpeechVoice(s.config.Voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
		Speed:          s.config.Speed,
	}
	if supportsInstructions(s.config.Model) {
		req.Instructions = instructionFor(lang)
	}

	response, err := s.client.CreateSpeech(ctx, req)
	if err != nil {
		return fmt.Errorf("OpenAI TTS API error: %w", err)
	}
	defer response.Close()

	written, err := io.Copy(w, response)
	if err != nil {
		return fmt.Errorf("failed to write audio: %w", err)
	}
	if written == 0 {
		return fmt.Errorf("no audio data received from OpenAI")
	}

	return nil
}

// Name returns the backend name
func (s *OpenAISynthesizer) Name() string {
	return "openai"
}

func supportsInstructions(model string) bool {
	return model == "gpt-4o-mini-tts"
}

// instructionFor tells instruction-capable models which language to speak
func instructionFor(lang string) string {
	name, ok := languageNames[strings.ToLower(lang)]
	if !ok {
		name = fmt.Sprintf("the language with code %q", lang)
	}
	return fmt.Sprintf("Speak %s. Pronounce the text slowly and clearly for language learners.", name)
}
