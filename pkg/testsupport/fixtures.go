package testsupport

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func LoadFixture(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// LoadGolden decodes a JSON golden file into v.
func LoadGolden(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// WriteTree writes files, keyed by slash-separated relative path, below root.
func WriteTree(tb testing.TB, root string, files map[string]string) {
	tb.Helper()

	for name, body := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			tb.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			tb.Fatalf("write %s: %v", path, err)
		}
	}
}
