package translation

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"

	DefaultOpenAIModel = openai.GPT4oMini
	DefaultGeminiModel = "gemini-2.0-flash"
)

// Translator turns a UI string into the target language
type Translator interface {
	Translate(ctx context.Context, text, targetLang string) (string, error)
	Name() string
}

// Config selects and configures a translation backend
type Config struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string // Overrides the API endpoint, mostly for tests
}

// NewTranslator creates the translator named by config.Provider
func NewTranslator(ctx context.Context, config Config) (Translator, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("%s API key not found", config.Provider)
	}

	switch config.Provider {
	case ProviderOpenAI, "":
		return NewOpenAITranslator(config), nil
	case ProviderGemini:
		return NewGeminiTranslator(ctx, config)
	default:
		return nil, fmt.Errorf("unknown translation provider: %s", config.Provider)
	}
}

func prompt(text, targetLang string) string {
	return fmt.Sprintf("Translate the following user interface string of the Qtel EchoLink client "+
		"from English to %s. Keep Qt placeholders such as %%1, %%2 and %%n unchanged and keep an "+
		"ampersand keyboard accelerator if the source has one. Respond with only the translation, "+
		"nothing else.\n\n%s", targetLang, text)
}

// cleanReply strips whitespace and the quotes models like to add
func cleanReply(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	return s
}

// OpenAITranslator uses the OpenAI chat completion API
type OpenAITranslator struct {
	client *openai.Client
	model  string
}

// NewOpenAITranslator creates a new OpenAI backed translator
func NewOpenAITranslator(config Config) *OpenAITranslator {
	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	model := config.Model
	if model == "" {
		model = DefaultOpenAIModel
	}

	return &OpenAITranslator{
		client: openai.NewClientWithConfig(clientConfig),
		model:  model,
	}
}

func (t *OpenAITranslator) Name() string {
	return ProviderOpenAI
}

// Translate asks the chat model for a translation of text
func (t *OpenAITranslator) Translate(ctx context.Context, text, targetLang string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: t.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt(text, targetLang),
			},
		},
		MaxTokens:   200,
		Temperature: 0.3,
	}

	resp, err := t.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no translation returned")
	}

	return cleanReply(resp.Choices[0].Message.Content), nil
}

// GeminiTranslator uses the Gemini generate content API
type GeminiTranslator struct {
	client *genai.Client
	model  string
}

// NewGeminiTranslator creates a new Gemini backed translator
func NewGeminiTranslator(ctx context.Context, config Config) (*GeminiTranslator, error) {
	clientConfig := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: config.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := config.Model
	if model == "" {
		model = DefaultGeminiModel
	}

	return &GeminiTranslator{client: client, model: model}, nil
}

func (t *GeminiTranslator) Name() string {
	return ProviderGemini
}

// Translate asks the Gemini model for a translation of text
func (t *GeminiTranslator) Translate(ctx context.Context, text, targetLang string) (string, error) {
	resp, err := t.client.Models.GenerateContent(ctx, t.model, genai.Text(prompt(text, targetLang)), &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.3),
	})
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}

	translation := cleanReply(resp.Text())
	if translation == "" {
		return "", fmt.Errorf("no translation returned")
	}
	return translation, nil
}

// TranslationCache stores translations in memory so a fill run asks the
// backend once per distinct source string
type TranslationCache struct {
	translations map[string]string
}

// NewTranslationCache creates a new translation cache
func NewTranslationCache() *TranslationCache {
	return &TranslationCache{
		translations: make(map[string]string),
	}
}

// Add adds a translation to the cache
func (tc *TranslationCache) Add(source, translation string) {
	tc.translations[source] = translation
}

// Get retrieves a translation from the cache
func (tc *TranslationCache) Get(source string) (string, bool) {
	translation, ok := tc.translations[source]
	return translation, ok
}
