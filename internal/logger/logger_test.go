package logger

import "testing"

func TestSanitizeKVs_RedactsSecrets(t *testing.T) {
	got := sanitizeKVs([]interface{}{"user_id", 7, "password", "hunter2", "refresh_token", "abc", "dangling"})
	want := []interface{}{"user_id", 7, "password", "[REDACTED]", "refresh_token", "[REDACTED]", "dangling"}
	if len(got) != len(want) {
		t.Fatalf("len mismatch: got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: got %v want %v", i, got[i], want[i])
		}
	}
}
