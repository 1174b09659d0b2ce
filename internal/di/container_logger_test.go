package di_test

import (
	"context"
	"sync"

	"github.com/goliatone/go-sitecontent/pkg/interfaces"
)

type recordingProvider struct {
	mu      sync.Mutex
	entries []recordedEntry
}

type recordedEntry struct {
	level  string
	msg    string
	fields map[string]any
}

func newRecordingProvider() *recordingProvider {
	return &recordingProvider{}
}

func (p *recordingProvider) GetLogger(name string) interfaces.Logger {
	return &recordingLogger{
		provider: p,
		fields:   map[string]any{"logger": name},
	}
}

func (p *recordingProvider) record(entry recordedEntry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = append(p.entries, entry)
}

func (p *recordingProvider) find(msg string) *recordedEntry {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.entries {
		if p.entries[i].msg == msg {
			entry := p.entries[i]
			return &entry
		}
	}
	return nil
}

type recordingLogger struct {
	provider *recordingProvider
	fields   map[string]any
}

func (l *recordingLogger) Trace(msg string, args ...any) { l.log("trace", msg, args...) }
func (l *recordingLogger) Debug(msg string, args ...any) { l.log("debug", msg, args...) }
func (l *recordingLogger) Info(msg string, args ...any)  { l.log("info", msg, args...) }
func (l *recordingLogger) Warn(msg string, args ...any)  { l.log("warn", msg, args...) }
func (l *recordingLogger) Error(msg string, args ...any) { l.log("error", msg, args...) }
func (l *recordingLogger) Fatal(msg string, args ...any) { l.log("fatal", msg, args...) }

func (l *recordingLogger) WithFields(fields map[string]any) interfaces.Logger {
	merged := make(map[string]any, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &recordingLogger{provider: l.provider, fields: merged}
}

func (l *recordingLogger) WithContext(context.Context) interfaces.Logger {
	return l
}

func (l *recordingLogger) log(level, msg string, args ...any) {
	fields := make(map[string]any, len(l.fields)+len(args)/2)
	for k, v := range l.fields {
		fields[k] = v
	}
	for i := 0; i+1 < len(args); i += 2 {
		if key, ok := args[i].(string); ok {
			fields[key] = args[i+1]
		}
	}
	l.provider.record(recordedEntry{level: level, msg: msg, fields: fields})
}
