package i18n

import (
	"strings"
	"testing"
)

func TestLoadFromDir(t *testing.T) {
	manager, err := LoadFromDir(".", "en")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	tr := manager.Translator("en")
	if tr.Lang() != "en" {
		t.Fatalf("expected en, got %s", tr.Lang())
	}

	if got := tr.T("flow.phone_prompt"); !strings.Contains(got, "phone number") {
		t.Fatalf("unexpected phone prompt: %q", got)
	}
	if got := tr.T("flow.success"); !strings.Contains(got, "%s") {
		t.Fatalf("expected success template to carry a format verb, got %q", got)
	}
}

func TestTranslatorFallsBackToKey(t *testing.T) {
	manager, err := LoadFromDir(".", "en")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	tr := manager.Translator("en")
	if got := tr.T("no.such.key"); got != "no.such.key" {
		t.Fatalf("expected key fallback, got %q", got)
	}
}

func TestUnknownLanguageUsesDefault(t *testing.T) {
	manager, err := LoadFromDir(".", "en")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	tr := manager.Translator("xx")
	if tr.Lang() != "en" {
		t.Fatalf("expected fallback to en, got %s", tr.Lang())
	}
}

func TestMissingDefaultLanguageFails(t *testing.T) {
	if _, err := LoadFromDir(".", "de"); err == nil {
		t.Fatal("expected error for missing default language")
	}
}
