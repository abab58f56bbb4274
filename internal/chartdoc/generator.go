// Package chartdoc produces chart README descriptions via an LLM.
package chartdoc

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/tyemirov/utils/llm"
)

const (
	defaultMaxTokens          = 512
	templateExcerptCharacterCap = 8000
)

// Options configure chart description generation.
type Options struct {
	ChartName         string
	ChartDescription  string
	TemplateArtifacts map[string]string
	MaxTokens         int
	Temperature       *float64
}

// Result contains the generated description and the prompt that produced it.
type Result struct {
	Description string
	Request     llm.ChatRequest
}

// Generator produces chart documentation prose from rendered templates via an LLM.
type Generator struct {
	Client llm.ChatClient
	Logger *zap.Logger
}

// ErrNoTemplates indicates there are no rendered templates to describe.
var ErrNoTemplates = errors.New("no rendered templates available for chart description")

// Generate builds the prompt and returns the LLM response.
func (generator Generator) Generate(ctx context.Context, options Options) (Result, error) {
	request, requestError := generator.BuildRequest(options)
	if requestError != nil {
		return Result{}, requestError
	}
	response, llmError := generator.Client.Chat(ctx, request)
	if llmError != nil {
		return Result{}, fmt.Errorf("chart description generation.llm: %w", llmError)
	}
	trimmed := strings.TrimSpace(response)
	if trimmed == "" {
		return Result{}, errors.New("llm returned an empty chart description")
	}
	return Result{Description: trimmed, Request: request}, nil
}

// BuildRequest prepares the chat request without invoking the LLM.
func (generator Generator) BuildRequest(options Options) (llm.ChatRequest, error) {
	if generator.Client == nil {
		return llm.ChatRequest{}, errors.New("llm client is not configured")
	}
	chartName := strings.TrimSpace(options.ChartName)
	if chartName == "" {
		return llm.ChatRequest{}, errors.New("chart name is required")
	}
	if len(options.TemplateArtifacts) == 0 {
		return llm.ChatRequest{}, ErrNoTemplates
	}

	systemMessage := llm.Message{
		Role: "system",
		Content: strings.Join([]string{
			"You are an expert Kubernetes engineer documenting Helm charts.",
			"Write a short README description of the chart in plain prose.",
			"Mention the workload and the notable optional resources.",
			"Do not include explanations, quotes, code fences, or template excerpts.",
		}, " "),
	}

	userMessage := llm.Message{
		Role: "user",
		Content: fmt.Sprintf(
			"Chart: %s\nDeclared description: %s\n\nRendered templates:\n%s\n\nReturn only the README description.",
			chartName,
			fallbackText(strings.TrimSpace(options.ChartDescription), "None provided."),
			templateExcerpt(options.TemplateArtifacts),
		),
	}

	maxTokens := options.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	request := llm.ChatRequest{
		Messages:    []llm.Message{systemMessage, userMessage},
		MaxTokens:   maxTokens,
		Temperature: options.Temperature,
	}

	return request, nil
}

func templateExcerpt(templateArtifacts map[string]string) string {
	artifactNames := make([]string, 0, len(templateArtifacts))
	for artifactName := range templateArtifacts {
		artifactNames = append(artifactNames, artifactName)
	}
	sort.Strings(artifactNames)

	var excerptBuilder strings.Builder
	for _, artifactName := range artifactNames {
		fragment := fmt.Sprintf("--- %s ---\n%s\n", artifactName, templateArtifacts[artifactName])
		if excerptBuilder.Len()+len(fragment) > templateExcerptCharacterCap {
			excerptBuilder.WriteString("--- ")
			excerptBuilder.WriteString(artifactName)
			excerptBuilder.WriteString(" (omitted) ---\n")
			continue
		}
		excerptBuilder.WriteString(fragment)
	}
	return excerptBuilder.String()
}

func fallbackText(value string, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
