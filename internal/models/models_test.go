package models

import "testing"

func TestActionScan(t *testing.T) {
	var a Action
	if err := a.Scan(`{"type":"me","message":"hi there"}`); err != nil {
		t.Fatalf("scan string: %v", err)
	}
	if a.Type != ActionMe || a.Message != "hi there" {
		t.Fatalf("unexpected action: %+v", a)
	}

	if err := a.Scan(nil); err != nil {
		t.Fatalf("scan nil: %v", err)
	}
	if a != (Action{}) {
		t.Fatalf("nil scan should reset, got %+v", a)
	}

	if err := a.Scan(42); err == nil {
		t.Fatal("expected error for int source")
	}
}

func TestActionValue(t *testing.T) {
	v, err := Action{Type: ActionSay, Message: "x"}.Value()
	if err != nil {
		t.Fatalf("value: %v", err)
	}
	var back Action
	if err := back.Scan(v); err != nil {
		t.Fatalf("scan back: %v", err)
	}
	if back.Type != ActionSay || back.Message != "x" {
		t.Fatalf("got %+v", back)
	}
}

func TestCommandAliasHelpers(t *testing.T) {
	id := int64(7)
	c := &Command{ID: &id, Aliases: "hello|hi|hey"}
	if c.MainAlias() != "hello" {
		t.Errorf("main alias: %q", c.MainAlias())
	}
	if got := c.AliasList(); len(got) != 3 || got[2] != "hey" {
		t.Errorf("alias list: %v", got)
	}
	if !c.HasID() || c.IDValue() != 7 {
		t.Errorf("id helpers broken")
	}

	builtin := &Command{Aliases: ""}
	if builtin.HasID() || builtin.IDValue() != 0 || builtin.MainAlias() != "" || builtin.AliasList() != nil {
		t.Errorf("built-in helpers broken: %+v", builtin)
	}
}
