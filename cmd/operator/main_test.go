package main

import "testing"

func TestMaskValue(t *testing.T) {
	cases := map[string]string{
		"":                  "",
		"short":             "****",
		"xai-1234567890abc": "xai-****0abc",
	}
	for in, want := range cases {
		if got := maskValue(in); got != want {
			t.Fatalf("maskValue(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMaskDatabaseURL(t *testing.T) {
	got := maskDatabaseURL("postgres://village:secret@db:5432/village")
	if got != "postgres://village:****@db:5432/village" {
		t.Fatalf("unexpected masked url %q", got)
	}
	if got := maskDatabaseURL("postgres://village@db:5432/village"); got != "postgres://village@db:5432/village" {
		t.Fatalf("url without password must be unchanged, got %q", got)
	}
	if got := maskDatabaseURL("sqlite://village.db"); got != "sqlite://village.db" {
		t.Fatalf("sqlite url must be unchanged, got %q", got)
	}
}
