package logger

import "testing"

func TestSanitizeKVsRedactsSecrets(t *testing.T) {
	got := sanitizeKVs([]interface{}{"neo4j_password", "hunter2", "title", "Nova"})
	if got[1] != "[REDACTED]" {
		t.Fatalf("password value: want redacted got=%v", got[1])
	}
	if got[3] != "Nova" {
		t.Fatalf("title value: want=Nova got=%v", got[3])
	}
}

func TestSanitizeKVsStripsURLCredentials(t *testing.T) {
	got := sanitizeKVs([]interface{}{"sql_dsn", "postgres://app:pw@db:5432/works"})
	if got[1] != "postgres://db:5432/works" {
		t.Fatalf("dsn: got=%v", got[1])
	}
}

func TestSanitizeKVsOddLength(t *testing.T) {
	got := sanitizeKVs([]interface{}{"title", "Nova", "dangling"})
	if len(got) != 3 || got[2] != "dangling" {
		t.Fatalf("odd kv: got=%v", got)
	}
}

func TestNewModes(t *testing.T) {
	for _, mode := range []string{"test", "development", "production"} {
		l, err := New(mode)
		if err != nil {
			t.Fatalf("New(%q): %v", mode, err)
		}
		l.Info("hello", "mode", mode)
	}
	if _, err := New("development", "bogus"); err == nil {
		t.Fatalf("expected error for invalid level")
	}
}

func TestSanitizeKVsRedactsKeywordDSNPassword(t *testing.T) {
	cases := map[string]string{
		"host=db user=app password=s3cret dbname=works sslmode=disable": "host=db user=app password=[REDACTED] dbname=works sslmode=disable",
		"host=db password='s3 cret' dbname=works":                       "host=db password=[REDACTED] dbname=works",
		"host=db PASSWORD = s3cret":                                     "host=db PASSWORD = [REDACTED]",
		"postgres://db:5432/works?password=s3cret":                      "postgres://db:5432/works?password=[REDACTED]",
		"file:works.db?mode=memory":                                     "file:works.db?mode=memory",
	}
	for in, want := range cases {
		got := sanitizeKVs([]interface{}{"dsn", in})
		if got[1] != want {
			t.Fatalf("dsn %q: want=%q got=%v", in, want, got[1])
		}
	}
}
