package bedrock

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"oshikake/internal/config"
	"oshikake/internal/extract"
	"oshikake/internal/port"
)

const (
	anthropicVersion = "bedrock-2023-05-31"
	defaultModelID   = "us.anthropic.claude-3-7-sonnet-20250219-v1:0"

	maxTokens = 4096
)

func init() {
	extract.RegisterProvider("bedrock", func(cfg *config.ExtractorProviderConfig) (port.OrderExtractor, error) {
		return NewExtractor(cfg)
	})
}

// modelInvoker is the slice of the Bedrock runtime client this extractor
// needs; satisfied by *bedrockruntime.Client.
type modelInvoker interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Extractor implements port.OrderExtractor using Anthropic models hosted
// on AWS Bedrock.
type Extractor struct {
	client  modelInvoker
	modelID string
}

// NewExtractor creates a Bedrock-backed order extractor.
func NewExtractor(cfg *config.ExtractorProviderConfig) (*Extractor, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	return NewExtractorWithClient(cfg, bedrockruntime.NewFromConfig(awsCfg)), nil
}

// NewExtractorWithClient creates an extractor over an existing client
// (for testing).
func NewExtractorWithClient(cfg *config.ExtractorProviderConfig, client modelInvoker) *Extractor {
	modelID := cfg.DefaultModel
	if modelID == "" {
		modelID = defaultModelID
	}
	return &Extractor{client: client, modelID: modelID}
}

func (e *Extractor) Extract(ctx context.Context, input port.ExtractInput) (*port.ExtractOutput, error) {
	switch input.ContentType {
	case "image/jpeg", "image/png":
	default:
		return nil, fmt.Errorf("unsupported content type for extraction: %s", input.ContentType)
	}

	encoded := base64.StdEncoding.EncodeToString(input.ImageBytes)

	reqBody := map[string]interface{}{
		"anthropic_version": anthropicVersion,
		"max_tokens":        maxTokens,
		"temperature":       0,
		"top_p":             0.9,
		"system":            extract.SystemPrompt,
		"messages": []map[string]interface{}{
			{
				"role": "user",
				"content": []map[string]interface{}{
					{
						"type": "text",
						"text": extract.BuildOrderPrompt(),
					},
					{
						"type": "image",
						"source": map[string]interface{}{
							"type":       "base64",
							"media_type": input.ContentType,
							"data":       encoded,
						},
					},
				},
			},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	out, err := e.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(e.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        bodyBytes,
	})
	if err != nil {
		var throttle *types.ThrottlingException
		if errors.As(err, &throttle) {
			return nil, extract.NewRateLimitError("bedrock", err, 0)
		}
		return nil, extract.NewServiceError("bedrock", err)
	}

	return parseResponse(out.Body, e.modelID)
}

// invokeResponse models the Anthropic response body Bedrock relays.
type invokeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

func parseResponse(body []byte, modelID string) (*port.ExtractOutput, error) {
	var resp invokeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, extract.NewServiceError("bedrock", fmt.Errorf("unmarshaling response: %w", err))
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}
	if text == "" {
		return nil, extract.NewServiceError("bedrock", fmt.Errorf("empty response from model"))
	}

	if resp.StopReason == "max_tokens" {
		return nil, extract.NewServiceError("bedrock",
			fmt.Errorf("output truncated (stop_reason: max_tokens)"))
	}

	return &port.ExtractOutput{RawText: text, ModelUsed: modelID}, nil
}
