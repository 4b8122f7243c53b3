package service

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestSessions(t *testing.T) (*SessionStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewSessionStore(client), mr
}

func TestSessionStoreSetAndGet(t *testing.T) {
	sessions, _ := newTestSessions(t)
	ctx := context.Background()

	value := map[string]any{"clauseCount": float64(12)}
	if err := sessions.Set(ctx, "alice", KeyExtractionInfo, value); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	var got map[string]any
	ok, err := sessions.Get(ctx, "alice", KeyExtractionInfo, &got)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !ok {
		t.Fatal("Expected key to exist")
	}
	if got["clauseCount"] != float64(12) {
		t.Errorf("Expected clauseCount 12, got %v", got["clauseCount"])
	}
}

func TestSessionStoreGetMissing(t *testing.T) {
	sessions, _ := newTestSessions(t)

	var got map[string]any
	ok, err := sessions.Get(context.Background(), "alice", KeyContracts, &got)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ok {
		t.Error("Expected missing key to report absent")
	}
}

func TestSessionStoreMalformedValueTreatedAsAbsent(t *testing.T) {
	sessions, mr := newTestSessions(t)

	// Simulate a corrupted stored value
	mr.Set("session:alice:contracts", "{not json")

	var got []map[string]any
	ok, err := sessions.Get(context.Background(), "alice", KeyContracts, &got)
	if err != nil {
		t.Fatalf("Expected malformed value to be swallowed, got error: %v", err)
	}
	if ok {
		t.Error("Expected malformed value to report absent")
	}
}

func TestSessionStoreUserIsolation(t *testing.T) {
	sessions, _ := newTestSessions(t)
	ctx := context.Background()

	if err := sessions.Set(ctx, "alice", KeyReviewViewMode, "compact"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	var mode string
	ok, err := sessions.Get(ctx, "bob", KeyReviewViewMode, &mode)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ok {
		t.Error("Expected bob's session to be empty")
	}
}

func TestSessionStoreRemove(t *testing.T) {
	sessions, _ := newTestSessions(t)
	ctx := context.Background()

	sessions.Set(ctx, "alice", KeyChatMessages, []string{"hi"})
	sessions.Set(ctx, "alice", KeyChatContractID, "nda.pdf")

	if err := sessions.Remove(ctx, "alice", KeyChatMessages, KeyChatContractID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}

	var msgs []string
	ok, _ := sessions.Get(ctx, "alice", KeyChatMessages, &msgs)
	if ok {
		t.Error("Expected chatMessages to be removed")
	}
}

func TestSessionStoreWholeValueReplacement(t *testing.T) {
	sessions, _ := newTestSessions(t)
	ctx := context.Background()

	sessions.Set(ctx, "alice", KeyCurrentAnalysis, map[string]any{"type": "contract_review", "fileName": "a.pdf"})
	sessions.Set(ctx, "alice", KeyCurrentAnalysis, map[string]any{"type": "risk_assessment"})

	var got map[string]any
	ok, err := sessions.Get(ctx, "alice", KeyCurrentAnalysis, &got)
	if err != nil || !ok {
		t.Fatalf("Get failed: ok=%v err=%v", ok, err)
	}
	if got["type"] != "risk_assessment" {
		t.Errorf("Expected replaced type, got %v", got["type"])
	}
	if _, stale := got["fileName"]; stale {
		t.Error("Expected stale fileName to be gone after whole-value replacement")
	}
}

func TestSnapshotKeys(t *testing.T) {
	keys := SnapshotKeys()
	if len(keys) != 6 {
		t.Fatalf("Expected 6 cascade keys, got %d", len(keys))
	}
	want := map[string]bool{
		KeyContractReview: true, KeyLegalResearch: true, KeyRiskAssessment: true,
		KeyExtraction: true, KeyExtractionInfo: true, KeyCurrentAnalysis: true,
	}
	for _, k := range keys {
		if !want[k] {
			t.Errorf("Unexpected cascade key %q", k)
		}
	}
}
