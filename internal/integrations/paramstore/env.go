package paramstore

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"
)

// EnvGetter resolves parameter names from environment variables. The last
// path segment of the name is upper-cased with dashes turned into
// underscores, so "/plateful/google-sheet-id" reads GOOGLE_SHEET_ID.
type EnvGetter struct {
	lookup func(string) (string, bool)
}

func NewEnvGetter() *EnvGetter {
	return &EnvGetter{lookup: os.LookupEnv}
}

func (g *EnvGetter) GetParameter(_ context.Context, name string) (string, error) {
	key := EnvKey(name)
	if key == "" {
		return "", fmt.Errorf("paramstore: name is required")
	}
	lookup := g.lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	v, ok := lookup(key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", fmt.Errorf("paramstore: environment variable %s is not set", key)
	}
	return v, nil
}

// EnvKey maps a parameter name to its environment variable.
func EnvKey(name string) string {
	name = strings.Trim(strings.TrimSpace(name), "/")
	if name == "" {
		return ""
	}
	return strings.ToUpper(strings.ReplaceAll(path.Base(name), "-", "_"))
}
