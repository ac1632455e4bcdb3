// Package testutil holds helpers shared by the module's tests.
package testutil

import (
	"os"
	"strings"
	"testing"
)

// MCAEnvPrefix is the prefix of every MCA parameter in the environment.
const MCAEnvPrefix = "PMIX_MCA_"

// ClearMCAEnv unsets every MCA parameter for the rest of the test and
// restores them in t.Cleanup, so a developer's environment cannot change
// what a test selects. Like t.Setenv it cannot be used in parallel tests.
func ClearMCAEnv(t testing.TB) {
	t.Helper()
	for _, kv := range os.Environ() {
		k, v, _ := strings.Cut(kv, "=")
		if !strings.HasPrefix(k, MCAEnvPrefix) {
			continue
		}
		t.Setenv(k, v)
		if err := os.Unsetenv(k); err != nil {
			t.Fatalf("unset %s: %v", k, err)
		}
	}
}

// MCAEnv returns the MCA parameters currently set, keyed by name.
func MCAEnv() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		k, v, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(k, MCAEnvPrefix) {
			env[k] = v
		}
	}
	return env
}
