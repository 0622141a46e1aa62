package utils

import "testing"

func TestExtractJSONObject(t *testing.T) {
	got, err := ExtractJSONObject(`{"text":"Here lies Mochi."}`)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got["text"] != "Here lies Mochi." {
		t.Fatalf("unexpected text: %v", got["text"])
	}
}

func TestExtractJSONObjectWithWrapper(t *testing.T) {
	got, err := ExtractJSONObject("```json\nprefix {\"text\":\"ok\"} suffix\n```")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got["text"] != "ok" {
		t.Fatalf("unexpected text: %v", got["text"])
	}
}

func TestExtractJSONObjectInvalid(t *testing.T) {
	if _, err := ExtractJSONObject(`no json here`); err == nil {
		t.Fatalf("expected error for missing object")
	}
}

func TestNormalizeNarration(t *testing.T) {
	got := NormalizeNarration("  Luna\\n and   Marcus\n quarrel ")
	if got != "Luna and Marcus quarrel" {
		t.Fatalf("unexpected narration: %q", got)
	}
}
