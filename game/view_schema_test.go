package game

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

func TestViewMatchesSchema(t *testing.T) {
	s, err := jsonschema.Compile(filepath.Join("..", "schemas", "view.schema.json"))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	validate := func(name string, v View) {
		t.Helper()
		raw, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("%s: marshal: %v", name, err)
		}
		var doc any
		if err := json.Unmarshal(raw, &doc); err != nil {
			t.Fatalf("%s: unmarshal: %v", name, err)
		}
		if err := s.Validate(doc); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
	}

	sess := newSession(t, testRules(), "alice")
	validate("fresh", sess.View(t0))

	if _, err := sess.SelectClaim(3, 3); err != nil {
		t.Fatalf("SelectClaim: %v", err)
	}
	validate("selected", sess.View(t0))
	if _, err := sess.ConfirmClaim("AL"); err != nil {
		t.Fatalf("ConfirmClaim: %v", err)
	}

	play := t0.Add(11 * time.Second)
	if _, err := sess.Tick(play); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if _, err := sess.RequestHint(play); err != nil {
		t.Fatalf("RequestHint: %v", err)
	}
	validate("play", sess.View(play))

	if _, err := sess.EndPlay(play.Add(time.Second)); err != nil {
		t.Fatalf("EndPlay: %v", err)
	}
	validate("countdown", sess.View(play.Add(time.Second)))
}
