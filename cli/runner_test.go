package cli

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zkstudy/zee/storage"
)

func mockEnv(t *testing.T) {
	t.Helper()
	t.Setenv("LLM_PROVIDER", "mock")
	t.Setenv("MOCK_MODEL", "")
	t.Setenv("PORT", "")
	t.Setenv("PIPELINE_DEADLINE", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FORMAT", "")
	t.Setenv("ARXIV_ENABLED", "")
	t.Setenv("RUN_JOURNAL_PATH", "")
}

func TestAnalyzePrintsSummary(t *testing.T) {
	mockEnv(t)
	var out bytes.Buffer

	err := Analyze(context.Background(), "zkSNARKs for blockchain scalability", Options{Out: &out, LogOut: io.Discard, Verbose: true})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	got := out.String()
	for _, want := range []string{"--- Turns ---", "Research Agent: ok", "Summary Agent: ok", "Summary of key takeaways", "Total tokens"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestAnalyzeInvalidTopic(t *testing.T) {
	mockEnv(t)
	err := Analyze(context.Background(), "zk", Options{Out: io.Discard, LogOut: io.Discard})
	if err == nil || !strings.Contains(err.Error(), "invalid topic") {
		t.Fatalf("expected invalid topic error, got %v", err)
	}
}

func TestAnalyzeWritesSqliteJournal(t *testing.T) {
	mockEnv(t)
	path := filepath.Join(t.TempDir(), "runs.db")
	t.Setenv("RUN_JOURNAL_PATH", path)

	if err := Analyze(context.Background(), "recursive proofs", Options{Out: io.Discard, LogOut: io.Discard}); err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	journal, err := storage.OpenSqlite(path)
	if err != nil {
		t.Fatalf("OpenSqlite: %v", err)
	}
	defer journal.Close()

	records, err := journal.Recent(context.Background(), 5)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(records) != 1 || records[0].Topic != "recursive proofs" || records[0].Outcome != "ok" {
		t.Errorf("unexpected records: %+v", records)
	}
}

func TestUnknownProvider(t *testing.T) {
	mockEnv(t)
	err := Analyze(context.Background(), "zk proofs", Options{Provider: "nope", Out: io.Discard, LogOut: io.Discard})
	if err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestMissingAPIKey(t *testing.T) {
	mockEnv(t)
	t.Setenv("OPENAI_API_KEY", "")
	err := Analyze(context.Background(), "zk proofs", Options{Provider: "openai", Out: io.Discard, LogOut: io.Discard})
	if err == nil || !strings.Contains(err.Error(), "OPENAI_API_KEY") {
		t.Fatalf("expected missing key error, got %v", err)
	}
}

func TestListTools(t *testing.T) {
	mockEnv(t)
	t.Setenv("ARXIV_ENABLED", "true")
	var out bytes.Buffer

	if err := ListTools(Options{Out: &out, Verbose: true}); err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	got := out.String()
	for _, want := range []string{"fetch-news", "fetch-papers", "topic*: string", "limit*: integer"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestListAvailableAgents(t *testing.T) {
	mockEnv(t)
	var out bytes.Buffer

	if err := ListAvailableAgents(Options{Out: &out, Verbose: true}); err != nil {
		t.Fatalf("ListAvailableAgents: %v", err)
	}
	got := out.String()
	research := strings.Index(got, "1. Research Agent (mock/mock-1)")
	summary := strings.Index(got, "2. Summary Agent (mock/mock-1)")
	if research < 0 || summary < research {
		t.Errorf("agents not listed in order:\n%s", got)
	}
	if !strings.Contains(got, "Tools: fetch-news") || !strings.Contains(got, "Use bullet points for key takeaways") {
		t.Errorf("missing tools or instructions:\n%s", got)
	}
}
