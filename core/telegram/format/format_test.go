package format

import "testing"

func TestEscapeMarkdownV1(t *testing.T) {
	got, err := EscapeMarkdown("low_stock *item* [x] `y`", MarkdownV1)
	if err != nil {
		t.Fatalf("EscapeMarkdown: %v", err)
	}
	want := "low\\_stock \\*item\\* \\[x] \\`y\\`"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestEscapeUsesMarkdownV2(t *testing.T) {
	if got := Escape("a.b-c!"); got != "a\\.b\\-c\\!" {
		t.Fatalf("got %q", got)
	}
	if got := Escape("my_best*item (2)"); got != "my\\_best\\*item \\(2\\)" {
		t.Fatalf("got %q", got)
	}
	if got := Escape(`back\slash`); got != `back\\slash` {
		t.Fatalf("got %q", got)
	}
	if _, err := EscapeMarkdown("x", 3); err == nil {
		t.Fatal("expected error for unknown version")
	}
}

func TestOrDefault(t *testing.T) {
	blank := "  "
	cat := "Tools"
	if OrDefault(nil, "N/A") != "N/A" || OrDefault(&blank, "N/A") != "N/A" || OrDefault(&cat, "N/A") != "Tools" {
		t.Fatal("OrDefault mismatch")
	}
}
