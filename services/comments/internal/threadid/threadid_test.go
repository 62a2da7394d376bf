package threadid

import "testing"

func TestDerive_Local(t *testing.T) {
	for _, u := range []string{"", "  ", "http://localhost:3000/post", "http://127.0.0.1/x"} {
		if got := Derive(u); got != Demo {
			t.Fatalf("Derive(%q) = %q, want %q", u, got, Demo)
		}
	}
}

func TestDerive_Stable(t *testing.T) {
	a := Derive("https://blog.example.org/posts/1")
	b := Derive("https://blog.example.org/posts/1")
	c := Derive("https://blog.example.org/posts/2")

	if len(a) != 16 {
		t.Fatalf("expected 16 chars, got %d (%q)", len(a), a)
	}
	if a != b {
		t.Fatalf("not deterministic: %q vs %q", a, b)
	}
	if a == c {
		t.Fatalf("distinct urls collided: %q", a)
	}
}
