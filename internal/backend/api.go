package backend

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/anthropics/anthropic-sdk-go/option"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/google/uuid"
)

// APIConfig contains configuration for the direct-API backend.
type APIConfig struct {
	// APIKey is the Anthropic API key. If empty, ANTHROPIC_API_KEY is used.
	APIKey string
	// UseAWSBedrock routes requests through AWS Bedrock instead.
	UseAWSBedrock bool
	// AWSRegion is the Bedrock region (e.g. "us-west-2").
	AWSRegion string
	// AWSProfile is the optional shared-config profile name.
	AWSProfile string
	// MaxTokens caps the response length. Zero means 8192.
	MaxTokens int64
}

// APIBackend spawns agents as single Anthropic Messages calls instead of
// claude CLI subprocesses. Useful where the CLI is not installed, or for
// roles that only produce text.
type APIBackend struct {
	client    anthropic.Client
	maxTokens int64
}

// NewAPIBackend creates an API backend from the given configuration.
func NewAPIBackend(cfg APIConfig) (*APIBackend, error) {
	var opts []option.RequestOption

	if cfg.UseAWSBedrock {
		ctx := context.Background()

		var loadOpts []func(*awsconfig.LoadOptions) error
		if cfg.AWSRegion != "" {
			loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.AWSRegion))
		}
		if cfg.AWSProfile != "" {
			loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(cfg.AWSProfile))
		}

		opts = append(opts, bedrock.WithLoadDefaultConfig(ctx, loadOpts...))
	} else {
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable is not set")
		}
		opts = append(opts, option.WithAPIKey(apiKey))
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 8192
	}

	return &APIBackend{
		client:    anthropic.NewClient(opts...),
		maxTokens: maxTokens,
	}, nil
}

// Invoke sends the task as one Messages request. API errors are folded into
// the Result output text so the spawn engine classifies them the same way it
// classifies CLI output.
func (b *APIBackend) Invoke(ctx context.Context, inv Invocation) (*Result, error) {
	resp, err := b.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(inv.Model),
		MaxTokens: b.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(inv.Task)),
		},
	})
	if err != nil {
		if ctx.Err() != nil {
			return &Result{ExitCode: -1}, ctx.Err()
		}
		return &Result{Output: err.Error(), ExitCode: 1}, nil
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			text.WriteString(variant.Text)
		}
	}

	return &Result{
		Output:    text.String(),
		ExitCode:  0,
		SessionID: uuid.New().String(),
	}, nil
}

// Verify APIBackend implements Backend at compile time.
var _ Backend = (*APIBackend)(nil)
