/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"chainguard.dev/prscribe/githubout"
)

// fakeOpenAI answers chat completions: requests offering tools get a
// compare_branches call, everything else gets canned text.
type fakeOpenAI struct {
	mu        sync.Mutex
	requests  []map[string]any
	text      string
	failTools bool
}

func (f *fakeOpenAI) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decoding completion request: %v", err)
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.requests = append(f.requests, body)
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if _, hasTools := body["tools"]; hasTools {
			if f.failTools {
				w.WriteHeader(http.StatusBadRequest)
				fmt.Fprint(w, `{"error": {"message": "tools are broken", "type": "invalid_request_error"}}`)
				return
			}
			json.NewEncoder(w).Encode(map[string]any{
				"id": "chatcmpl-1", "object": "chat.completion", "created": 1, "model": "gpt-3.5-turbo-0125",
				"choices": []any{map[string]any{
					"index": 0, "finish_reason": "tool_calls",
					"message": map[string]any{
						"role": "assistant", "content": "",
						"tool_calls": []any{map[string]any{
							"id": "call_1", "type": "function",
							"function": map[string]any{
								"name":      "compare_branches",
								"arguments": `{"owner":"acme","repo":"widgets","basehead":"main...feature"}`,
							},
						}},
					},
				}},
				"usage": map[string]any{"prompt_tokens": 42, "completion_tokens": 11, "total_tokens": 53},
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"id": "chatcmpl-2", "object": "chat.completion", "created": 2, "model": "gpt-4o-2024-08-06",
			"choices": []any{map[string]any{
				"index": 0, "finish_reason": "stop",
				"message": map[string]any{"role": "assistant", "content": f.text},
			}},
			"usage": map[string]any{"prompt_tokens": 100, "completion_tokens": 50, "total_tokens": 150},
		})
	})
}

func (f *fakeOpenAI) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeOpenAI) request(t *testing.T, i int) map[string]any {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if i >= len(f.requests) {
		t.Fatalf("only %d completion requests were made, wanted index %d", len(f.requests), i)
	}
	return f.requests[i]
}

func requestMessages(t *testing.T, req map[string]any) []map[string]any {
	t.Helper()
	raw, ok := req["messages"].([]any)
	if !ok {
		t.Fatalf("completion request has no messages: %v", req)
	}
	out := make([]map[string]any, 0, len(raw))
	for _, m := range raw {
		out = append(out, m.(map[string]any))
	}
	return out
}

func newGitHubServer(t *testing.T) (*httptest.Server, *int) {
	t.Helper()
	hits := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/widgets/compare/main...feature", func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"status": "ahead", "ahead_by": 1, "behind_by": 0, "total_commits": 1,
			"files": [{
				"filename": "server.go", "status": "modified",
				"additions": 2, "deletions": 1, "changes": 3,
				"patch": "@@ -10,4 +10,5 @@\n func route() {\n-\treturn nil\n+\tmetrics.Count()\n+\treturn nil\n }"
			}]
		}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &hits
}

func testConfig(openaiURL, githubURL string) *Config {
	return &Config{
		OpenAIAPIKey:         "sk-test",
		OpenAIBaseURL:        openaiURL,
		Repository:           "acme/widgets",
		BaseRef:              "main",
		HeadRef:              "feature",
		GenerationModel:      "gpt-4o",
		FunctionCallingModel: "gpt-3.5-turbo",
		SystemPrompt:         "You write concise pull request descriptions.",
		BotName:              "pr-auto-bot",
		ServiceToken:         "gh-token",
		ResponseSubtree:      "files",
		OutputKey:            "pr-text",
		GitHubAPIURL:         githubURL,
	}
}

func TestRun(t *testing.T) {
	t.Parallel()

	ai := &fakeOpenAI{text: "## Summary\n\nAdds request metrics to the router."}
	aiSrv := httptest.NewServer(ai.handler(t))
	t.Cleanup(aiSrv.Close)
	ghSrv, _ := newGitHubServer(t)

	outPath := filepath.Join(t.TempDir(), "output")
	var console bytes.Buffer
	p := New(testConfig(aiSrv.URL, ghSrv.URL),
		WithConsole(&console),
		WithOutput(githubout.New(outPath)))

	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run() = %v", err)
	}

	if got := ai.count(); got != 2 {
		t.Fatalf("completion requests = %d, want 2 (function calling + generation)", got)
	}

	// First call offers the compare tool to the function-calling model with
	// the deterministic prompt built from the refs.
	fnReq := ai.request(t, 0)
	if got := fnReq["model"]; got != "gpt-3.5-turbo" {
		t.Errorf("function-calling model = %v, want gpt-3.5-turbo", got)
	}
	fnMsgs := requestMessages(t, fnReq)
	wantPrompt := "Compare branches main and feature, in GitHub repository acme/widgets."
	if len(fnMsgs) != 1 || fnMsgs[0]["content"] != wantPrompt {
		t.Errorf("function-calling messages = %v, want one user message %q", fnMsgs, wantPrompt)
	}

	// Second call carries the system prompt and the files subtree as JSON.
	genReq := ai.request(t, 1)
	if got := genReq["model"]; got != "gpt-4o" {
		t.Errorf("generation model = %v, want gpt-4o", got)
	}
	if got := genReq["max_tokens"]; got != float64(2560) {
		t.Errorf("max_tokens = %v, want 2560", got)
	}
	genMsgs := requestMessages(t, genReq)
	if len(genMsgs) != 2 {
		t.Fatalf("generation messages = %d, want 2", len(genMsgs))
	}
	if genMsgs[0]["role"] != "system" || genMsgs[0]["content"] != "You write concise pull request descriptions." {
		t.Errorf("system message = %v", genMsgs[0])
	}
	var files []map[string]any
	if err := json.Unmarshal([]byte(genMsgs[1]["content"].(string)), &files); err != nil {
		t.Fatalf("diff message is not JSON: %v", err)
	}
	if len(files) != 1 || files[0]["filename"] != "server.go" {
		t.Errorf("diff message files = %v, want the server.go entry", files)
	}

	// Console gets the text and the stats, like a local docker run.
	wantText := "## Summary\n\nAdds request metrics to the router."
	if !strings.HasPrefix(console.String(), wantText+"\n\n") {
		t.Errorf("console = %q, want it to start with the generated text", console.String())
	}
	if !strings.Contains(console.String(), `"total_tokens":150`) {
		t.Errorf("console = %q, want generation stats", console.String())
	}

	// The workflow gets both outputs.
	outFile, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("ReadFile() = %v", err)
	}
	for _, want := range []string{"pr-text<<", wantText, "pr-text_stats<<", `"total_tokens":150`} {
		if !strings.Contains(string(outFile), want) {
			t.Errorf("output file does not contain %q:\n%s", want, outFile)
		}
	}
}

func TestRunAppendsAttributionAndInstruction(t *testing.T) {
	t.Parallel()

	ai := &fakeOpenAI{text: "Beschreibung."}
	aiSrv := httptest.NewServer(ai.handler(t))
	t.Cleanup(aiSrv.Close)
	ghSrv, _ := newGitHubServer(t)

	cfg := testConfig(aiSrv.URL, ghSrv.URL)
	cfg.UserPrompt = "@pr-auto-bot write in German"
	cfg.Attribution = "Generated by prscribe."

	outPath := filepath.Join(t.TempDir(), "output")
	var console bytes.Buffer
	p := New(cfg, WithConsole(&console), WithOutput(githubout.New(outPath)))
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run() = %v", err)
	}

	genMsgs := requestMessages(t, ai.request(t, 1))
	if len(genMsgs) != 3 {
		t.Fatalf("generation messages = %d, want 3 with the custom instruction", len(genMsgs))
	}
	if genMsgs[2]["role"] != "user" || genMsgs[2]["content"] != "write in German" {
		t.Errorf("instruction message = %v", genMsgs[2])
	}

	outFile, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("ReadFile() = %v", err)
	}
	if !strings.Contains(string(outFile), "Beschreibung.\n\nGenerated by prscribe.") {
		t.Errorf("output file does not carry the attribution:\n%s", outFile)
	}
}

func TestRunSkip(t *testing.T) {
	t.Parallel()

	// No server must be reached on the skip path.
	refuse := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request to %s", r.URL)
	}))
	t.Cleanup(refuse.Close)

	cfg := testConfig(refuse.URL, refuse.URL)
	cfg.UserPrompt = "@pr-auto-bot skip this one"

	outPath := filepath.Join(t.TempDir(), "output")
	p := New(cfg, WithConsole(&bytes.Buffer{}), WithOutput(githubout.New(outPath)))
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run() = %v", err)
	}

	outFile, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("ReadFile() = %v", err)
	}
	lines := strings.Split(string(outFile), "\n")
	if len(lines) < 3 || !strings.HasPrefix(lines[0], "pr-text<<") || lines[1] != "" {
		t.Errorf("output file = %q, want an empty pr-text heredoc", outFile)
	}
	if strings.Contains(string(outFile), "pr-text_stats") {
		t.Error("skip run registered stats, wanted only the empty pr-text")
	}
}

func TestRunFallsBackWhenFunctionCallingFails(t *testing.T) {
	t.Parallel()

	ai := &fakeOpenAI{text: "A description.", failTools: true}
	aiSrv := httptest.NewServer(ai.handler(t))
	t.Cleanup(aiSrv.Close)
	ghSrv, ghHits := newGitHubServer(t)

	outPath := filepath.Join(t.TempDir(), "output")
	p := New(testConfig(aiSrv.URL, ghSrv.URL),
		WithConsole(&bytes.Buffer{}),
		WithOutput(githubout.New(outPath)))
	if err := p.Run(context.Background()); err != nil {
		t.Fatalf("Run() = %v", err)
	}

	// One failed tool call, no retries on invalid_request, then generation;
	// the compare still ran from locally derived arguments.
	if got := ai.count(); got != 2 {
		t.Errorf("completion requests = %d, want 2", got)
	}
	if *ghHits != 1 {
		t.Errorf("compare requests = %d, want 1", *ghHits)
	}
	if _, err := os.Stat(outPath); err != nil {
		t.Errorf("output file missing after fallback run: %v", err)
	}
}

func TestRunCompareFailureRegistersNoOutput(t *testing.T) {
	t.Parallel()

	ai := &fakeOpenAI{text: "unused"}
	aiSrv := httptest.NewServer(ai.handler(t))
	t.Cleanup(aiSrv.Close)

	gh := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message": "Not Found"}`)
	}))
	t.Cleanup(gh.Close)

	outPath := filepath.Join(t.TempDir(), "output")
	p := New(testConfig(aiSrv.URL, gh.URL),
		WithConsole(&bytes.Buffer{}),
		WithOutput(githubout.New(outPath)))

	if err := p.Run(context.Background()); err == nil {
		t.Fatal("Run() succeeded, wanted an error")
	}
	if got := ai.count(); got != 1 {
		t.Errorf("completion requests = %d, want only the function-calling one", got)
	}
	if _, err := os.Stat(outPath); !os.IsNotExist(err) {
		t.Errorf("output file exists after a failed run (stat err %v)", err)
	}
}

func TestRunUnknownSubtree(t *testing.T) {
	t.Parallel()

	ai := &fakeOpenAI{text: "unused"}
	aiSrv := httptest.NewServer(ai.handler(t))
	t.Cleanup(aiSrv.Close)
	ghSrv, _ := newGitHubServer(t)

	cfg := testConfig(aiSrv.URL, ghSrv.URL)
	cfg.ResponseSubtree = "nonexistent"

	p := New(cfg, WithConsole(&bytes.Buffer{}), WithOutput(githubout.New(filepath.Join(t.TempDir(), "output"))))
	err := p.Run(context.Background())
	if err == nil {
		t.Fatal("Run() succeeded, wanted an error")
	}
	if !strings.Contains(err.Error(), "selecting response subtree") {
		t.Errorf("error %q does not mention subtree selection", err)
	}
}

func TestComparePrompt(t *testing.T) {
	t.Parallel()

	cfg := testConfig("https://api.openai.com/v1", "")
	p := New(cfg, WithConsole(&bytes.Buffer{}))

	got, err := p.comparePrompt()
	if err != nil {
		t.Fatalf("comparePrompt() = %v", err)
	}
	if want := "Compare branches main and feature, in GitHub repository acme/widgets."; got != want {
		t.Errorf("comparePrompt() = %q, want %q", got, want)
	}

	// A workflow-rendered prompt is used verbatim.
	cfg.FunctionCallingPrompt = "Compare branches main and feature, in GitHub repository acme/widgets."
	got, err = p.comparePrompt()
	if err != nil {
		t.Fatalf("comparePrompt() = %v", err)
	}
	if got != cfg.FunctionCallingPrompt {
		t.Errorf("comparePrompt() = %q, want the rendered prompt verbatim", got)
	}
}
