package agent

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"google.golang.org/genai"
)

func TestAgent_Next(t *testing.T) {
	var out bytes.Buffer
	a := New(&out, strings.NewReader("  how is AAPL?  \n\nbye\n"))
	queued := []string{" first "}

	var got []string
	for {
		q, ok := a.next(&queued)
		if !ok {
			break
		}
		got = append(got, q)
	}
	want := []string{"first", "how is AAPL?", "", "bye"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("next() = %q, want %q", got, want)
	}
	if !strings.HasPrefix(out.String(), prompt+"first\n") {
		t.Errorf("queued questions are not echoed: %q", out.String())
	}
}

func TestNewLibrary_DuplicateName(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("NewLibrary() with a duplicate name did not panic")
		}
	}()
	m := &fakeMarkets{}
	tools := Tools(m)
	NewLibrary(append(tools, tools[0]))
}

func TestExpert_CallRequiresQuestion(t *testing.T) {
	e := NewTrader()
	resp := e.Call(context.Background(), "7", map[string]any{"question": 42})
	if resp.ID != "7" || resp.Name != "Trader" {
		t.Errorf("Call() response = %s/%s, want 7/Trader", resp.ID, resp.Name)
	}
	if _, ok := resp.Response["error"].(string); !ok {
		t.Errorf("Call() with a number = %v, want an error", resp.Response)
	}
}

func TestText(t *testing.T) {
	c := &genai.Content{Parts: []*genai.Part{{Text: "AAPL is "}, {Text: "up."}}}
	if got := text(c); got != "AAPL is up." {
		t.Errorf("text() = %q, want %q", got, "AAPL is up.")
	}
}
