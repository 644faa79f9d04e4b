package llm

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"devgptstats/internal/aggregate"
	"devgptstats/internal/config"
	"devgptstats/internal/domain"
	"devgptstats/internal/report"
)

func testReport() *report.Report {
	return &report.Report{
		Name: "DevGPT",
		Sections: []report.Section{
			{
				Source: domain.KindIssue,
				Result: aggregate.Result{
					Resolution: domain.Aggregate{Total: 3, Resolved: 2, Unresolved: 1},
					Categories: []domain.CategoryAggregate{
						{Category: domain.CategoryBug, Aggregate: domain.Aggregate{Total: 2, Resolved: 1, Unresolved: 1}},
					},
					Totals: domain.CategoryTotals{Resolved: 1, Unresolved: 1},
				},
			},
			{
				Source: domain.KindDiscussion,
				Result: aggregate.Result{Resolution: domain.Aggregate{Total: 1, Unresolved: 1}},
			},
		},
	}
}

func stubProviders(t *testing.T, anthropicFn, openAIFn func(apiKey, model, systemPrompt, userPrompt string) (string, LLMUsage, error)) {
	t.Helper()
	origAnthropic, origOpenAI := callAnthropicFn, callOpenAIFn
	t.Cleanup(func() {
		callAnthropicFn = origAnthropic
		callOpenAIFn = origOpenAI
	})
	if anthropicFn != nil {
		callAnthropicFn = anthropicFn
	}
	if openAIFn != nil {
		callOpenAIFn = openAIFn
	}
}

func TestBuildSummaryPrompt(t *testing.T) {
	prompt := BuildSummaryPrompt(testReport())
	for _, want := range []string{
		"Dataset: DevGPT",
		"Issues: total=3 resolved=2 unresolved=1 success=66.67%",
		"  bug: total=2 resolved=1 unresolved=1 accuracy=50.00%",
		"Discussions: total=1 resolved=0 unresolved=1 success=0.00%",
		"  no classified conversations",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestModelFor(t *testing.T) {
	tests := []struct {
		cfg  config.Config
		want string
	}{
		{config.Config{LLMProvider: "anthropic"}, defaultAnthropicModel},
		{config.Config{LLMProvider: "openai"}, defaultOpenAIModel},
		{config.Config{LLMProvider: "openai", LLMModel: "gpt-4.1"}, "gpt-4.1"},
	}
	for _, tt := range tests {
		if got := ModelFor(tt.cfg); got != tt.want {
			t.Fatalf("ModelFor(%+v) = %q, want %q", tt.cfg, got, tt.want)
		}
	}
}

func TestSummarizeRoutesByProvider(t *testing.T) {
	var gotKey, gotModel string
	stubProviders(t,
		func(apiKey, model, systemPrompt, userPrompt string) (string, LLMUsage, error) {
			gotKey, gotModel = apiKey, model
			return "  anthropic summary \n", LLMUsage{InputTokens: 10, OutputTokens: 5}, nil
		},
		func(apiKey, model, systemPrompt, userPrompt string) (string, LLMUsage, error) {
			gotKey, gotModel = apiKey, model
			return "openai summary", LLMUsage{}, nil
		},
	)

	text, usage, err := Summarize(config.Config{LLMProvider: "anthropic", AnthropicAPIKey: "ak"}, testReport())
	if err != nil {
		t.Fatalf("Summarize anthropic: %v", err)
	}
	if text != "anthropic summary" || gotKey != "ak" || gotModel != defaultAnthropicModel || usage.TotalTokens() != 15 {
		t.Fatalf("unexpected anthropic result text=%q key=%q model=%q usage=%+v", text, gotKey, gotModel, usage)
	}

	text, _, err = Summarize(config.Config{LLMProvider: "openai", OpenAIAPIKey: "ok", LLMModel: "gpt-x"}, testReport())
	if err != nil {
		t.Fatalf("Summarize openai: %v", err)
	}
	if text != "openai summary" || gotKey != "ok" || gotModel != "gpt-x" {
		t.Fatalf("unexpected openai result text=%q key=%q model=%q", text, gotKey, gotModel)
	}

	if _, _, err := Summarize(config.Config{LLMProvider: "bard"}, testReport()); err == nil {
		t.Fatal("expected unsupported provider error")
	}
}

func TestSummarizeErrors(t *testing.T) {
	boom := errors.New("boom")
	stubProviders(t, func(apiKey, model, systemPrompt, userPrompt string) (string, LLMUsage, error) {
		return "", LLMUsage{}, boom
	}, nil)
	if _, _, err := Summarize(config.Config{LLMProvider: "anthropic"}, testReport()); !errors.Is(err, boom) {
		t.Fatalf("expected provider error, got %v", err)
	}

	stubProviders(t, func(apiKey, model, systemPrompt, userPrompt string) (string, LLMUsage, error) {
		return "   ", LLMUsage{}, nil
	}, nil)
	if _, _, err := Summarize(config.Config{LLMProvider: "anthropic"}, testReport()); err == nil {
		t.Fatal("expected empty summary error")
	}
}

func TestCallOpenAI(t *testing.T) {
	var gotAuth string
	var gotReq openAIRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"all good"}}],"usage":{"prompt_tokens":7,"completion_tokens":3}}`))
	}))
	defer srv.Close()

	orig := openAIChatURL
	openAIChatURL = srv.URL
	defer func() { openAIChatURL = orig }()

	text, usage, err := callOpenAI("sk-test", "gpt-4o-mini", "sys", "user")
	if err != nil {
		t.Fatalf("callOpenAI failed: %v", err)
	}
	if text != "all good" || usage.InputTokens != 7 || usage.OutputTokens != 3 {
		t.Fatalf("unexpected response text=%q usage=%+v", text, usage)
	}
	if gotAuth != "Bearer sk-test" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if gotReq.Model != "gpt-4o-mini" || len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" {
		t.Fatalf("unexpected request body: %+v", gotReq)
	}
}

func TestCallOpenAIAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key"}}`))
	}))
	defer srv.Close()

	orig := openAIChatURL
	openAIChatURL = srv.URL
	defer func() { openAIChatURL = orig }()

	if _, _, err := callOpenAI("bad", "m", "s", "u"); err == nil || !strings.Contains(err.Error(), "bad key") {
		t.Fatalf("expected api error, got %v", err)
	}
}
