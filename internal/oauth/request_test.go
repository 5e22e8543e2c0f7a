package oauth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/gsarma/jobboard/internal/oauth"
)

func TestRequest_ResolvesOnce(t *testing.T) {
	r := oauth.NewRequest("https://example.com/auth")
	if r.Status() != oauth.StatusPending {
		t.Fatalf("new request status = %v, want pending", r.Status())
	}

	if !r.Resolve(oauth.Result{Status: oauth.StatusSuccess, AccessToken: "tok123"}) {
		t.Fatal("first Resolve should win")
	}
	if r.Resolve(oauth.Result{Status: oauth.StatusError, Reason: "late"}) {
		t.Error("second Resolve should be ignored")
	}
	r.Cancel()

	res, err := r.Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if res.Status != oauth.StatusSuccess || res.AccessToken != "tok123" {
		t.Errorf("result = %+v, want success(tok123)", res)
	}
	select {
	case <-r.Done():
	default:
		t.Error("Done should be closed after resolution")
	}
}

func TestRequest_ResolvePendingIsIgnored(t *testing.T) {
	r := oauth.NewRequest("")
	if r.Resolve(oauth.Result{Status: oauth.StatusPending}) {
		t.Error("resolving with pending should be a no-op")
	}
	if r.Status() != oauth.StatusPending {
		t.Errorf("status = %v, want pending", r.Status())
	}
}

func TestRequest_WaitHonoursContext(t *testing.T) {
	r := oauth.NewRequest("")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := r.Wait(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Wait err = %v, want DeadlineExceeded", err)
	}
	if r.Status() != oauth.StatusPending {
		t.Error("a timed-out wait must not resolve the request")
	}
}

func TestRequest_WaitUnblocksOnCancel(t *testing.T) {
	r := oauth.NewRequest("")
	go func() {
		time.Sleep(5 * time.Millisecond)
		r.Cancel()
	}()
	res, err := r.Wait(context.Background())
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if res.Status != oauth.StatusCancelled {
		t.Errorf("status = %v, want cancelled", res.Status)
	}
}

func TestRequest_ResolvedResultBeatsEndedContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for i := 0; i < 200; i++ {
		r := oauth.NewRequest("")
		r.Resolve(oauth.Result{Status: oauth.StatusSuccess, AccessToken: "tok123"})

		res, err := r.Wait(ctx)
		if err != nil || res.AccessToken != "tok123" {
			t.Fatalf("run %d: Wait = %+v, %v; want success(tok123)", i, res, err)
		}
		if r.Cancel() {
			t.Fatalf("run %d: Cancel after resolution should report false", i)
		}
	}
}

func TestState_RoundTrip(t *testing.T) {
	id := uuid.New()
	state, nonce, err := oauth.EncodeState(id)
	if err != nil {
		t.Fatalf("EncodeState: %v", err)
	}
	payload, err := oauth.DecodeState(state)
	if err != nil {
		t.Fatalf("DecodeState: %v", err)
	}
	if payload.RequestID != id || payload.Nonce != nonce {
		t.Errorf("payload = %+v, want id %s nonce %s", payload, id, nonce)
	}
}

func TestDecodeState_Rejects(t *testing.T) {
	for name, state := range map[string]string{
		"empty":      "",
		"not base64": "%%%",
		"not json":   "bm90LWpzb24",
		"incomplete": "eyJub25jZSI6IiJ9", // {"nonce":""}
	} {
		if _, err := oauth.DecodeState(state); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
