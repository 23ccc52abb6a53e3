package cache

import (
	"testing"
	"time"
)

func TestFIFOPolicy(t *testing.T) {
	policy := &FIFOPolicy{}

	if victim := policy.SelectVictim([]Entry{}); victim != -1 {
		t.Errorf("Expected -1 for empty entries, got %d", victim)
	}

	now := time.Now()
	entries := []Entry{
		{Question: "q1", Timestamp: now.Add(-3 * time.Second)},
		{Question: "q2", Timestamp: now.Add(-1 * time.Second)},
		{Question: "q3", Timestamp: now.Add(-2 * time.Second)},
	}

	if victim := policy.SelectVictim(entries); victim != 0 {
		t.Errorf("Expected victim index 0 (oldest write), got %d", victim)
	}
}

func TestLRUPolicy(t *testing.T) {
	policy := &LRUPolicy{}

	if victim := policy.SelectVictim([]Entry{}); victim != -1 {
		t.Errorf("Expected -1 for empty entries, got %d", victim)
	}

	now := time.Now()
	entries := []Entry{
		{Question: "q1", LastAccessAt: now.Add(-1 * time.Second)},
		{Question: "q2", LastAccessAt: now.Add(-3 * time.Second)},
		{Question: "q3", LastAccessAt: now.Add(-2 * time.Second)},
	}

	if victim := policy.SelectVictim(entries); victim != 1 {
		t.Errorf("Expected victim index 1 (least recently used), got %d", victim)
	}
}

func TestLFUPolicy(t *testing.T) {
	policy := &LFUPolicy{}

	if victim := policy.SelectVictim([]Entry{}); victim != -1 {
		t.Errorf("Expected -1 for empty entries, got %d", victim)
	}

	now := time.Now()
	entries := []Entry{
		{Question: "q1", HitCount: 5, LastAccessAt: now},
		{Question: "q2", HitCount: 1, LastAccessAt: now},
		{Question: "q3", HitCount: 3, LastAccessAt: now},
	}

	if victim := policy.SelectVictim(entries); victim != 1 {
		t.Errorf("Expected victim index 1 (fewest hits), got %d", victim)
	}

	// Ties break toward the older access.
	tied := []Entry{
		{Question: "q1", HitCount: 2, LastAccessAt: now.Add(-1 * time.Second)},
		{Question: "q2", HitCount: 2, LastAccessAt: now.Add(-5 * time.Second)},
	}
	if victim := policy.SelectVictim(tied); victim != 1 {
		t.Errorf("Expected victim index 1 (older access on tie), got %d", victim)
	}
}

func TestPolicyFromName(t *testing.T) {
	if _, ok := PolicyFromName("fifo").(*FIFOPolicy); !ok {
		t.Error("fifo should map to FIFOPolicy")
	}
	if _, ok := PolicyFromName("lfu").(*LFUPolicy); !ok {
		t.Error("lfu should map to LFUPolicy")
	}
	if _, ok := PolicyFromName("lru").(*LRUPolicy); !ok {
		t.Error("lru should map to LRUPolicy")
	}
	if _, ok := PolicyFromName("").(*LRUPolicy); !ok {
		t.Error("unknown names should default to LRUPolicy")
	}
}
