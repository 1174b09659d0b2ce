package gologger

import (
	"context"
	"testing"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-sitecontent/pkg/interfaces"
)

func TestNewProviderRejectsUnknownFormat(t *testing.T) {
	if _, err := NewProvider(Config{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewProviderCreatesNamedLogger(t *testing.T) {
	p, err := NewProvider(Config{Level: "debug", Format: "console", Focus: []string{" ", "sitecontent.store"}})
	if err != nil {
		t.Fatalf("NewProvider returned error: %v", err)
	}

	logger := p.GetLogger("sitecontent.store")
	if logger == nil {
		t.Fatal("expected logger, got nil")
	}
	logger.Debug("adapter.initialised")
}

func TestAdapterClonesFieldsAndDelegates(t *testing.T) {
	stub := &stubLogger{}
	adapted := wrap(stub)

	adapted.Info("store.save")
	adapted.Error("store.save.failed")

	fields := map[string]any{"content_type": "faq"}
	adapted.(interfaces.FieldsLogger).WithFields(fields)
	fields["content_type"] = "home"

	if len(stub.fields) != 1 || stub.fields[0]["content_type"] != "faq" {
		t.Fatalf("expected cloned fields, got %v", stub.fields)
	}
	if len(stub.calls) != 2 || stub.calls[0] != "info" || stub.calls[1] != "error" {
		t.Fatalf("unexpected calls %v", stub.calls)
	}

	ctx := context.WithValue(context.Background(), struct{}{}, "tab")
	adapted.WithContext(ctx)
	if len(stub.contexts) != 1 || stub.contexts[0] != ctx {
		t.Fatalf("expected context propagation, got %#v", stub.contexts)
	}
}

type stubLogger struct {
	calls    []string
	fields   []map[string]any
	contexts []context.Context
}

var _ glog.Logger = (*stubLogger)(nil)
var _ glog.FieldsLogger = (*stubLogger)(nil)

func (s *stubLogger) Trace(string, ...any) { s.calls = append(s.calls, "trace") }
func (s *stubLogger) Debug(string, ...any) { s.calls = append(s.calls, "debug") }
func (s *stubLogger) Info(string, ...any)  { s.calls = append(s.calls, "info") }
func (s *stubLogger) Warn(string, ...any)  { s.calls = append(s.calls, "warn") }
func (s *stubLogger) Error(string, ...any) { s.calls = append(s.calls, "error") }
func (s *stubLogger) Fatal(string, ...any) { s.calls = append(s.calls, "fatal") }

func (s *stubLogger) WithContext(ctx context.Context) glog.Logger {
	s.contexts = append(s.contexts, ctx)
	return s
}

func (s *stubLogger) WithFields(fields map[string]any) glog.Logger {
	s.fields = append(s.fields, fields)
	return s
}
