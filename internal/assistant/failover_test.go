package assistant

import (
	"context"
	"errors"
	"testing"
)

func TestFailoverPrimarySuccess(t *testing.T) {
	primary := &fakeCompletionClient{resp: CompletionResponse{Text: "primary"}}
	secondary := &fakeCompletionClient{resp: CompletionResponse{Text: "secondary"}}
	client := NewFailoverClient(primary, secondary, nil)

	resp, err := client.Complete(context.Background(), CompletionRequest{})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Text != "primary" {
		t.Errorf("Text = %q", resp.Text)
	}
	if secondary.calls != 0 {
		t.Error("secondary must not be called when primary succeeds")
	}
}

func TestFailoverUsesSecondaryOnError(t *testing.T) {
	primary := &fakeCompletionClient{err: errors.New("timeout")}
	secondary := &fakeCompletionClient{resp: CompletionResponse{Text: "secondary"}}
	client := NewFailoverClient(primary, secondary, nil)

	resp, err := client.Complete(context.Background(), CompletionRequest{})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if resp.Text != "secondary" {
		t.Errorf("Text = %q", resp.Text)
	}
}

func TestFailoverSkipsFunctionRequests(t *testing.T) {
	primaryErr := errors.New("timeout")
	primary := &fakeCompletionClient{err: primaryErr}
	secondary := &fakeCompletionClient{resp: CompletionResponse{Text: "secondary"}}
	client := NewFailoverClient(primary, secondary, nil)

	_, err := client.Complete(context.Background(), CompletionRequest{
		Functions: []FunctionSchema{{Name: "create_booking"}},
	})
	if !errors.Is(err, primaryErr) {
		t.Fatalf("err = %v, want primary error", err)
	}
	if secondary.calls != 0 {
		t.Error("function-calling requests must not fail over")
	}
}

func TestFailoverNilSecondary(t *testing.T) {
	primaryErr := errors.New("timeout")
	client := NewFailoverClient(&fakeCompletionClient{err: primaryErr}, nil, nil)

	if _, err := client.Complete(context.Background(), CompletionRequest{}); !errors.Is(err, primaryErr) {
		t.Fatalf("err = %v, want primary error", err)
	}
}

func TestFailoverRequiresPrimary(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for nil primary")
		}
	}()
	NewFailoverClient(nil, nil, nil)
}
