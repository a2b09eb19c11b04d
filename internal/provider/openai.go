package provider

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// DefaultEmbeddingModel is the model used for generating embeddings
	DefaultEmbeddingModel = openai.AdaEmbeddingV2
	// DefaultEmbeddingDimensions is the expected dimension of embeddings from ada-002
	DefaultEmbeddingDimensions = 1536
	// DefaultChatModel is the model used for answer generation
	DefaultChatModel = openai.GPT4oMini
)

var (
	// ErrEmptyText is returned when text is empty
	ErrEmptyText = errors.New("text cannot be empty")
	// ErrWrongDimensions is returned when an embedding has unexpected dimensions
	ErrWrongDimensions = errors.New("embedding has wrong dimensions")
	// ErrNoCompletion is returned when the provider response carries no choices
	ErrNoCompletion = errors.New("no completion choices returned")
)

// EmbeddingAPI defines the interface for embedding generation
type EmbeddingAPI interface {
	CreateEmbeddings(ctx context.Context, text string) ([]float32, error)
}

// EmbeddingClient wraps an OpenAI-compatible embeddings endpoint.
type EmbeddingClient struct {
	api        EmbeddingAPI
	dimensions int
}

type openAIAdapter struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

func newOpenAIAdapter(apiKey, baseURL string, model openai.EmbeddingModel) *openAIAdapter {
	if model == "" {
		model = DefaultEmbeddingModel
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &openAIAdapter{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// CreateEmbeddings calls the embeddings endpoint
func (a *openAIAdapter) CreateEmbeddings(ctx context.Context, text string) ([]float32, error) {
	resp, err := a.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: a.model,
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Data) == 0 {
		return nil, errors.New("no embedding data returned")
	}

	return resp.Data[0].Embedding, nil
}

// EmbeddingConfig configures an EmbeddingClient.
type EmbeddingConfig struct {
	APIKey     string
	BaseURL    string
	Model      openai.EmbeddingModel
	Dimensions int
}

// NewEmbeddingClient creates an EmbeddingClient with defaults.
func NewEmbeddingClient(apiKey string) *EmbeddingClient {
	return NewEmbeddingClientWithConfig(EmbeddingConfig{APIKey: apiKey})
}

// NewEmbeddingClientWithConfig creates an EmbeddingClient with explicit configuration.
func NewEmbeddingClientWithConfig(cfg EmbeddingConfig) *EmbeddingClient {
	dimensions := cfg.Dimensions
	if dimensions <= 0 {
		dimensions = DefaultEmbeddingDimensions
	}
	return &EmbeddingClient{
		api:        newOpenAIAdapter(cfg.APIKey, cfg.BaseURL, cfg.Model),
		dimensions: dimensions,
	}
}

// GenerateEmbedding generates an embedding for the given text
func (c *EmbeddingClient) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	embedding, err := c.api.CreateEmbeddings(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}

	if len(embedding) != c.dimensions {
		return nil, ErrWrongDimensions
	}

	return embedding, nil
}

// ChatAPI issues one chat completion for a credential.
type ChatAPI interface {
	CreateChatCompletion(ctx context.Context, credential, model, systemPrompt, userPrompt string) (string, error)
}

// OpenAIProvider is a generation provider speaking the OpenAI chat API.
// BaseURL makes the same provider type cover any OpenAI-compatible endpoint.
// The credential arrives per call so the orchestrator owns the fallback
// order across the credential pool.
type OpenAIProvider struct {
	name    string
	baseURL string
	model   string
	api     ChatAPI
}

type openAIChatAdapter struct {
	baseURL string
}

func (a *openAIChatAdapter) CreateChatCompletion(ctx context.Context, credential, model, systemPrompt, userPrompt string) (string, error) {
	cfg := openai.DefaultConfig(credential)
	if a.baseURL != "" {
		cfg.BaseURL = a.baseURL
	}
	client := openai.NewClientWithConfig(cfg)

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", ErrNoCompletion
	}
	return resp.Choices[0].Message.Content, nil
}

// NewOpenAIProvider creates a generation provider for an OpenAI-compatible
// endpoint. An empty baseURL targets the OpenAI API itself.
func NewOpenAIProvider(name, baseURL, model string) *OpenAIProvider {
	if model == "" {
		model = DefaultChatModel
	}
	return &OpenAIProvider{
		name:    name,
		baseURL: baseURL,
		model:   model,
		api:     &openAIChatAdapter{baseURL: baseURL},
	}
}

// Name returns the configured provider name.
func (p *OpenAIProvider) Name() string {
	return p.name
}

// Complete issues one chat completion with the given credential.
func (p *OpenAIProvider) Complete(ctx context.Context, credential, systemPrompt, userPrompt string) (string, error) {
	if credential == "" {
		return "", errors.New("credential cannot be empty")
	}
	return p.api.CreateChatCompletion(ctx, credential, p.model, systemPrompt, userPrompt)
}
