package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	sitecontent "github.com/goliatone/go-sitecontent"
	"github.com/goliatone/go-sitecontent/pkg/testsupport"
)

func withModule(t *testing.T, cfg sitecontent.Config) {
	t.Helper()

	original := moduleBuilder
	moduleBuilder = func(globalOptions) (*sitecontent.Module, error) {
		return sitecontent.New(cfg)
	}
	t.Cleanup(func() { moduleBuilder = original })
}

func dirConfig(t *testing.T) sitecontent.Config {
	t.Helper()

	cfg := sitecontent.DefaultConfig()
	cfg.Storage.Provider = sitecontent.StorageDir
	cfg.Storage.Dir = t.TempDir()
	return cfg
}

func TestRunSaveThenList(t *testing.T) {
	withModule(t, dirConfig(t))
	ctx := context.Background()
	payload := `{"title":"Hello","slug":"Hello World","body":"Body text","published":true}`

	var out bytes.Buffer
	if err := run(ctx, []string{"save", "-type", "blogArticle", "-lang", "en"}, strings.NewReader(payload), &out); err != nil {
		t.Fatalf("save: %v", err)
	}
	var saved sitecontent.Record
	if err := json.Unmarshal(out.Bytes(), &saved); err != nil {
		t.Fatalf("decode saved record: %v", err)
	}
	if saved.ID == "" {
		t.Fatalf("expected generated id, got %+v", saved)
	}

	out.Reset()
	if err := run(ctx, []string{"list", "-type", "blogArticle", "-lang", "en"}, nil, &out); err != nil {
		t.Fatalf("list: %v", err)
	}
	var listed []map[string]any
	if err := json.Unmarshal(out.Bytes(), &listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("expected 1 record, got %d", len(listed))
	}

	out.Reset()
	if err := run(ctx, []string{"get", "-type", "blogArticle", "-lang", "en", "-slug", "hello-world"}, nil, &out); err != nil {
		t.Fatalf("get by slug: %v", err)
	}
	if !strings.Contains(out.String(), saved.ID) {
		t.Fatalf("expected get output to contain id %s, got %s", saved.ID, out.String())
	}

	if err := run(ctx, []string{"delete", "-type", "blogArticle", "-lang", "en", "-id", saved.ID}, nil, &out); err != nil {
		t.Fatalf("delete: %v", err)
	}
	out.Reset()
	if err := run(ctx, []string{"list", "-type", "blogArticle", "-lang", "en"}, nil, &out); err != nil {
		t.Fatalf("list after delete: %v", err)
	}
	if strings.TrimSpace(out.String()) != "[]" {
		t.Fatalf("expected empty list, got %s", out.String())
	}
}

func TestRunImportAndClear(t *testing.T) {
	withModule(t, dirConfig(t))
	ctx := context.Background()

	envelope := `{"id":"faq-1","language":"pt","payload":{"question":"Q?","answer":"A.","published":true}}`
	var out bytes.Buffer
	if err := run(ctx, []string{"import", "-type", "faq"}, strings.NewReader(envelope), &out); err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(out.String(), `"faq-1"`) {
		t.Fatalf("expected imported id in output, got %s", out.String())
	}

	out.Reset()
	if err := run(ctx, []string{"clear", "-type", "faq"}, nil, &out); err != nil {
		t.Fatalf("clear: %v", err)
	}
	var summary struct {
		Removed int `json:"removed"`
	}
	if err := json.Unmarshal(out.Bytes(), &summary); err != nil {
		t.Fatalf("decode clear summary: %v", err)
	}
	if summary.Removed != 1 {
		t.Fatalf("expected 1 removed, got %d", summary.Removed)
	}
}

func TestRunMarkdownImportDryRun(t *testing.T) {
	dir := t.TempDir()
	doc := "---\ntitle: Launch\n---\n\nFirst paragraph.\n"
	testsupport.WriteTree(t, dir, map[string]string{"en/launch.md": doc})

	cfg := sitecontent.DefaultConfig()
	cfg.Markdown.Enabled = true
	cfg.Markdown.ContentDir = dir
	withModule(t, cfg)

	var out bytes.Buffer
	if err := run(context.Background(), []string{"markdown-import", "-dry-run"}, nil, &out); err != nil {
		t.Fatalf("markdown-import: %v", err)
	}
	var summary struct {
		Created []string `json:"created"`
	}
	if err := json.Unmarshal(out.Bytes(), &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if len(summary.Created) != 1 || summary.Created[0] != "launch" {
		t.Fatalf("expected planned create for launch, got %+v", summary.Created)
	}
}

func TestRunRejectsUnknownInput(t *testing.T) {
	withModule(t, sitecontent.DefaultConfig())
	ctx := context.Background()

	if err := run(ctx, nil, nil, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected usage error without a command")
	}
	if err := run(ctx, []string{"publish"}, nil, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected error for unknown command")
	}
	if err := run(ctx, []string{"list", "-type", "gallery"}, nil, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected error for unknown type")
	}
}

func TestBuildModuleAppliesOverrides(t *testing.T) {
	module, err := buildModule(globalOptions{provider: "dir", dir: t.TempDir(), logLevel: "error"})
	if err != nil {
		t.Fatalf("build module: %v", err)
	}
	defer module.Close()

	if got := module.Container().Config.Storage.Provider; got != "dir" {
		t.Fatalf("expected dir provider, got %q", got)
	}
}

func TestBuildModuleDefaultsToDirStorage(t *testing.T) {
	t.Chdir(t.TempDir())

	first, err := buildModule(globalOptions{logLevel: "error"})
	if err != nil {
		t.Fatalf("build module: %v", err)
	}
	if got := first.Container().Config.Storage.Provider; got != sitecontent.StorageDir {
		t.Fatalf("expected dir provider by default, got %q", got)
	}
	ctx := context.Background()
	if _, err := first.Save(ctx, sitecontent.Record{
		Type:     sitecontent.TypeHome,
		Language: sitecontent.LanguagePT,
		Payload:  &sitecontent.HomeContent{HeroTitle: "Olá"},
	}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second, err := buildModule(globalOptions{logLevel: "error"})
	if err != nil {
		t.Fatalf("rebuild module: %v", err)
	}
	defer second.Close()
	if second.Store().Get(ctx, sitecontent.TypeHome, sitecontent.LanguagePT) == nil {
		t.Fatalf("expected content saved by a previous run to be listed")
	}
}
