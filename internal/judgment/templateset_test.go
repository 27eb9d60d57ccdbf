package judgment

import (
	"errors"
	"testing"
)

func TestNewTemplateSetBuildsInitialValue(t *testing.T) {
	set, err := NewTemplateSet("en", func(lang string) (string, error) {
		return "built:" + lang, nil
	})
	if err != nil {
		t.Fatalf("NewTemplateSet: %v", err)
	}
	if got := set.Current(); got != "built:en" {
		t.Fatalf("Current() = %q, want %q", got, "built:en")
	}
}

func TestNewTemplateSetPropagatesBuildError(t *testing.T) {
	wantErr := errors.New("boom")
	_, err := NewTemplateSet("en", func(string) (string, error) {
		return "", wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
}

func TestReloadSwapsCurrentAndReturnsOld(t *testing.T) {
	set, err := NewTemplateSet("en", func(lang string) (string, error) {
		return "built:" + lang, nil
	})
	if err != nil {
		t.Fatalf("NewTemplateSet: %v", err)
	}

	old, err := set.Reload("ja")
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if old != "built:en" {
		t.Fatalf("Reload returned old = %q, want %q", old, "built:en")
	}
	if got := set.Current(); got != "built:ja" {
		t.Fatalf("Current() after reload = %q, want %q", got, "built:ja")
	}
}

func TestReloadFailureLeavesCurrentValueUnchanged(t *testing.T) {
	set, err := NewTemplateSet("en", func(lang string) (string, error) {
		return "built:" + lang, nil
	})
	if err != nil {
		t.Fatalf("NewTemplateSet: %v", err)
	}

	set.build = func(string) (string, error) {
		return "", errors.New("reload failed")
	}

	if _, err := set.Reload("ja"); err == nil {
		t.Fatal("expected Reload to fail")
	}
	if got := set.Current(); got != "built:en" {
		t.Fatalf("Current() after failed reload = %q, want unchanged %q", got, "built:en")
	}
}
