package jsonextract

import "testing"

func TestExtractPlain(t *testing.T) {
	got, err := Extract(`{"a":1}`)
	if err != nil || got != `{"a":1}` {
		t.Fatalf("got %q, err %v", got, err)
	}
}

func TestExtractWithFence(t *testing.T) {
	in := "```json\n{\"a\": 1}\n```"
	got, err := Extract(in)
	if err != nil || got != `{"a": 1}` {
		t.Fatalf("got %q, err %v", got, err)
	}
}

func TestExtractWithPrefixAndSuffixProse(t *testing.T) {
	in := "Sure, here you go:\n{\"a\": \"b}{\"}\nHope that helps!"
	got, err := Extract(in)
	if err != nil {
		t.Fatalf("err %v", err)
	}
	if got != `{"a": "b}{"}` {
		t.Fatalf("got %q", got)
	}
}

func TestExtractEscapedQuotesInString(t *testing.T) {
	in := `{"a": "she said \"hi\" to {me}"}`
	got, err := Extract(in)
	if err != nil || got != in {
		t.Fatalf("got %q, err %v", got, err)
	}
}

func TestExtractNestedObjects(t *testing.T) {
	in := `prefix {"a": {"b": {"c": 1}}, "d": 2} suffix`
	got, err := Extract(in)
	want := `{"a": {"b": {"c": 1}}, "d": 2}`
	if err != nil || got != want {
		t.Fatalf("got %q, err %v", got, err)
	}
}

func TestExtractUnbalancedReturnsError(t *testing.T) {
	_, err := Extract(`{"a": 1`)
	if err != ErrNoJSONObject {
		t.Fatalf("err = %v, want ErrNoJSONObject", err)
	}
}

func TestExtractNoObjectReturnsError(t *testing.T) {
	_, err := Extract("no json here")
	if err != ErrNoJSONObject {
		t.Fatalf("err = %v, want ErrNoJSONObject", err)
	}
}
