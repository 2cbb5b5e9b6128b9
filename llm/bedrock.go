package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

type modelInvoker interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// BedrockCompleter implements Completer with Anthropic models on AWS Bedrock.
type BedrockCompleter struct {
	client      modelInvoker
	modelID     string
	maxTokens   int
	temperature float64
}

// NewBedrockCompleter creates a Bedrock-backed completer.
func NewBedrockCompleter(ctx context.Context, region, modelID string, maxTokens int, temperature float64) (*BedrockCompleter, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return newBedrockCompleter(bedrockruntime.NewFromConfig(cfg), modelID, maxTokens, temperature), nil
}

func newBedrockCompleter(client modelInvoker, modelID string, maxTokens int, temperature float64) *BedrockCompleter {
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &BedrockCompleter{
		client:      client,
		modelID:     modelID,
		maxTokens:   maxTokens,
		temperature: temperature,
	}
}

// Complete sends prompt with an optional system instruction and returns the
// text of the first content block.
func (c *BedrockCompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	requestBody := map[string]interface{}{
		"anthropic_version": "bedrock-2023-05-31",
		"max_tokens":        c.maxTokens,
		"temperature":       c.temperature,
		"messages": []map[string]interface{}{
			{
				"role": "user",
				"content": []map[string]interface{}{
					{
						"type": "text",
						"text": prompt,
					},
				},
			},
		},
	}
	if system != "" {
		requestBody["system"] = system
	}

	payloadBytes, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	output, err := c.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        payloadBytes,
	})
	if err != nil {
		return "", fmt.Errorf("failed to invoke Bedrock model: %w", err)
	}

	var response struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
		StopReason string `json:"stop_reason"`
	}
	if err := json.Unmarshal(output.Body, &response); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(response.Content) == 0 {
		return "", ErrEmptyResponse
	}

	text := strings.TrimSpace(response.Content[0].Text)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
