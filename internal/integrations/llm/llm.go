package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"devgptstats/internal/config"
	"devgptstats/internal/httpx"
	"devgptstats/internal/report"
)

type LLMUsage struct {
	InputTokens              int64
	OutputTokens             int64
	CacheCreationInputTokens int64
	CacheReadInputTokens     int64
}

func (u LLMUsage) TotalTokens() int64 {
	return u.InputTokens + u.OutputTokens
}

const defaultAnthropicModel = "claude-sonnet-4-5-20250929"
const defaultOpenAIModel = "gpt-4o-mini"
const maxSummaryTokens = 1024

var openAIChatURL = "https://api.openai.com/v1/chat/completions"

var (
	callAnthropicFn = callAnthropic
	callOpenAIFn    = callOpenAI
)

const summarySystemPrompt = `You write short summaries of developer/ChatGPT conversation statistics.
You are given resolution rates for GitHub issues, pull requests and discussions that shared ChatGPT
conversations, plus per-category counts (code, bug, error, feature, what-is) of the conversations.

Rules:
- Write 3 to 5 sentences of plain prose. No headings, no bullet lists.
- Only use numbers present in the input. Do not invent figures.
- Mention which category has the highest and lowest accuracy when categories are present.
- Note when a source has no classified conversations.`

// ModelFor returns the configured model, or the provider default.
func ModelFor(cfg config.Config) string {
	if cfg.LLMModel != "" {
		return cfg.LLMModel
	}
	if cfg.LLMProvider == "openai" {
		return defaultOpenAIModel
	}
	return defaultAnthropicModel
}

// BuildSummaryPrompt renders the report numbers as the user prompt.
func BuildSummaryPrompt(r *report.Report) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Dataset: %s\n", r.Name))
	if !r.From.IsZero() && !r.To.IsZero() {
		sb.WriteString(fmt.Sprintf("Records created between %s and %s\n", r.From.Format("2006-01-02"), r.To.Format("2006-01-02")))
	}
	for _, s := range r.Sections {
		res := s.Result.Resolution
		sb.WriteString(fmt.Sprintf("\n%s: total=%d resolved=%d unresolved=%d success=%.2f%%\n",
			s.Label(), res.Total, res.Resolved, res.Unresolved, res.Percent()))
		if len(s.Result.Categories) == 0 {
			sb.WriteString("  no classified conversations\n")
			continue
		}
		for _, c := range s.Result.Categories {
			a := c.Aggregate
			sb.WriteString(fmt.Sprintf("  %s: total=%d resolved=%d unresolved=%d accuracy=%.2f%%\n",
				c.Category, a.Total, a.Resolved, a.Unresolved, a.Percent()))
		}
		t := s.Result.Totals
		sb.WriteString(fmt.Sprintf("  all categories: resolved=%d unresolved=%d accuracy=%.2f%% (unclassified conversations=%d)\n",
			t.Resolved, t.Unresolved, t.Percent(), s.Result.Unclassified))
	}
	return sb.String()
}

// Summarize asks the configured provider for a short narrative of the report.
func Summarize(cfg config.Config, r *report.Report) (string, LLMUsage, error) {
	model := ModelFor(cfg)
	userPrompt := BuildSummaryPrompt(r)

	var (
		text  string
		usage LLMUsage
		err   error
	)
	switch cfg.LLMProvider {
	case "openai":
		log.Printf("llm summary provider=openai model=%s sections=%d", model, len(r.Sections))
		text, usage, err = callOpenAIFn(cfg.OpenAIAPIKey, model, summarySystemPrompt, userPrompt)
	case "anthropic", "":
		log.Printf("llm summary provider=anthropic model=%s sections=%d", model, len(r.Sections))
		text, usage, err = callAnthropicFn(cfg.AnthropicAPIKey, model, summarySystemPrompt, userPrompt)
	default:
		return "", LLMUsage{}, fmt.Errorf("unsupported llm provider %q", cfg.LLMProvider)
	}
	if err != nil {
		return "", usage, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", usage, fmt.Errorf("empty summary from %s", cfg.LLMProvider)
	}
	return text, usage, nil
}

// --- Anthropic ---

func callAnthropic(apiKey, model, systemPrompt, userPrompt string) (string, LLMUsage, error) {
	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
		option.WithHTTPClient(httpx.Client()),
	)

	message, err := client.Messages.New(context.Background(), anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxSummaryTokens,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt, CacheControl: anthropic.NewCacheControlEphemeralParam()},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		log.Printf("llm anthropic error: %v", err)
		return "", LLMUsage{}, fmt.Errorf("Anthropic API error: %w", err)
	}
	usage := LLMUsage{
		InputTokens:              message.Usage.InputTokens,
		OutputTokens:             message.Usage.OutputTokens,
		CacheCreationInputTokens: message.Usage.CacheCreationInputTokens,
		CacheReadInputTokens:     message.Usage.CacheReadInputTokens,
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			log.Printf("llm anthropic response size=%d tokens_in=%d tokens_out=%d", len(block.Text), usage.InputTokens, usage.OutputTokens)
			return block.Text, usage, nil
		}
	}
	return "", usage, fmt.Errorf("no text content in Anthropic response")
}

// --- OpenAI ---

type openAIRequest struct {
	Model     string          `json:"model"`
	Messages  []openAIMessage `json:"messages"`
	MaxTokens int             `json:"max_tokens,omitempty"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int64 `json:"prompt_tokens"`
		CompletionTokens int64 `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func callOpenAI(apiKey, model, systemPrompt, userPrompt string) (string, LLMUsage, error) {
	bodyBytes, err := json.Marshal(openAIRequest{
		Model: model,
		Messages: []openAIMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		MaxTokens: maxSummaryTokens,
	})
	if err != nil {
		return "", LLMUsage{}, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, openAIChatURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", LLMUsage{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := httpx.Client().Do(req)
	if err != nil {
		log.Printf("llm openai error: %v", err)
		return "", LLMUsage{}, fmt.Errorf("OpenAI API error: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", LLMUsage{}, fmt.Errorf("reading response: %w", err)
	}

	var openAIResp openAIResponse
	if err := json.Unmarshal(respBody, &openAIResp); err != nil {
		return "", LLMUsage{}, fmt.Errorf("parsing OpenAI response (status %d): %w", resp.StatusCode, err)
	}
	if openAIResp.Error != nil {
		log.Printf("llm openai api error: %s", openAIResp.Error.Message)
		return "", LLMUsage{}, fmt.Errorf("OpenAI API error: %s", openAIResp.Error.Message)
	}
	if len(openAIResp.Choices) == 0 {
		return "", LLMUsage{}, fmt.Errorf("no choices in OpenAI response")
	}

	usage := LLMUsage{}
	if openAIResp.Usage != nil {
		usage.InputTokens = openAIResp.Usage.PromptTokens
		usage.OutputTokens = openAIResp.Usage.CompletionTokens
	}
	log.Printf("llm openai response size=%d tokens_in=%d tokens_out=%d", len(openAIResp.Choices[0].Message.Content), usage.InputTokens, usage.OutputTokens)
	return openAIResp.Choices[0].Message.Content, usage, nil
}
