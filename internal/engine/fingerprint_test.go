package engine

import (
	"strings"
	"testing"

	"tmplpress/internal/loader"
)

func TestFingerprintStability(t *testing.T) {
	env := New(loader.NewMapLoader(nil))

	a := env.fingerprint("t.html", "{{ v }}")
	b := env.fingerprint("t.html", "{{ v }}")
	if a != b {
		t.Errorf("identical inputs produced different fingerprints: %q vs %q", a, b)
	}
}

func TestFingerprintChangesWithSource(t *testing.T) {
	env := New(loader.NewMapLoader(nil))

	a := env.fingerprint("t.html", "{{ v }}")
	b := env.fingerprint("t.html", "{{ w }}")
	if a == b {
		t.Error("different source produced the same fingerprint")
	}
}

func TestFingerprintChangesWithConfig(t *testing.T) {
	env := New(loader.NewMapLoader(nil))
	a := env.fingerprint("t.html", "{{ v }}")

	env.SetAutoescape(true)
	b := env.fingerprint("t.html", "{{ v }}")
	if a == b {
		t.Error("autoescape change produced the same fingerprint")
	}
}

func TestFingerprintIncludesName(t *testing.T) {
	env := New(loader.NewMapLoader(nil))

	a := env.fingerprint("a.html", "same")
	b := env.fingerprint("b.html", "same")
	if a == b {
		t.Error("different names produced the same fingerprint")
	}
	if !strings.HasSuffix(a, "a.html") {
		t.Errorf("fingerprint %q does not carry the template name", a)
	}
}

func TestGlobalsFingerprint(t *testing.T) {
	if globalsFingerprint(nil) != "" {
		t.Error("nil globals should fingerprint to the empty string")
	}
	if globalsFingerprint(map[string]any{}) != "" {
		t.Error("empty globals should fingerprint to the empty string")
	}

	// The fingerprint covers the variable names, not their values, so a
	// hit with the same variable set updates values in place.
	one := globalsFingerprint(map[string]any{"foo": "one"})
	two := globalsFingerprint(map[string]any{"foo": "two"})
	if one != two {
		t.Error("same variable set with different values must share a slot")
	}

	other := globalsFingerprint(map[string]any{"bar": "one"})
	if one == other {
		t.Error("different variable sets must not collide")
	}
}
