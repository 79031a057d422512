package config

import "testing"

func TestDefaultConfigValidates(t *testing.T) {
	c := DefaultConfig()
	if err := c.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestValidateRejectsBadPort(t *testing.T) {
	c := DefaultConfig()
	c.Port = 0
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidateRejectsEmptyCommand(t *testing.T) {
	c := DefaultConfig()
	c.Command = nil
	if err := c.Validate(); err == nil {
		t.Fatal("expected error for empty command")
	}
}

func TestHasAuth(t *testing.T) {
	c := DefaultConfig()
	if c.HasAuth() {
		t.Fatal("default config should have no auth configured")
	}
	c.BasicAuthUsername = "u"
	c.BasicAuthPassword = "p"
	if !c.HasAuth() {
		t.Fatal("expected auth once username and password are set")
	}
}

func TestRepaintDelay(t *testing.T) {
	c := DefaultConfig()
	c.RepaintDelayMS = 25
	if got := c.RepaintDelay().Milliseconds(); got != 25 {
		t.Fatalf("got %dms, want 25ms", got)
	}
}
