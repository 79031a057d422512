package ptyio

import "testing"

func TestSpawnRejectsEmptyCommand(t *testing.T) {
	_, err := Spawn(nil, ".", "xterm-256color", 80, 24)
	if err == nil {
		t.Fatal("expected error spawning empty command")
	}
}

func TestSpawnEchoRoundTrip(t *testing.T) {
	p, err := Spawn([]string{"/bin/echo", "hi"}, ".", "xterm-256color", 80, 24)
	if err != nil {
		t.Skipf("no pty available in this environment: %v", err)
	}
	defer p.Close()

	buf := make([]byte, 64)
	n, err := p.Read(buf)
	if err != nil && n == 0 {
		t.Fatalf("read: %v", err)
	}

	code, err := p.Wait()
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if code != 0 {
		t.Fatalf("exit code = %d, want 0", code)
	}
}
