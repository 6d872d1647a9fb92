package rate

import (
	"testing"
	"time"
)

func TestLimiter(t *testing.T) {
	burst := 1

	interval := 10 * time.Millisecond
	lim := Every(interval)
	r := NewLimiter(burst, time.Hour, lim)
	defer r.Close()

	tooshort := 1 * time.Millisecond

	client := "user:member"
	expected := []bool{true, false, true, true, false, false}
	waits := []time.Duration{tooshort, interval, interval, tooshort, tooshort, tooshort}
	for i, exp := range expected {
		if got := r.Check(client); got != exp {
			t.Fatalf("iteration %d: expected %v, but got %v", i, exp, got)
		}
		time.Sleep(waits[i])
	}
}

func TestLimiterClientsAreIndependent(t *testing.T) {
	r := NewLimiter(1, time.Hour, Every(time.Hour))
	defer r.Close()

	if !r.Check("user:a") {
		t.Fatal("first request of a must pass")
	}
	if r.Check("user:a") {
		t.Fatal("second request of a must be limited")
	}
	if !r.Check("user:b") {
		t.Fatal("b must not share a's bucket")
	}
}

func TestLimiterEvict(t *testing.T) {
	r := NewLimiter(1, time.Minute, Every(time.Hour))
	defer r.Close()

	r.Check("user:a")
	r.evict(time.Now().Add(2 * time.Minute))

	r.mu.Lock()
	n := len(r.clients)
	r.mu.Unlock()
	if n != 0 {
		t.Fatalf("expected idle clients to be evicted, %d left", n)
	}

	if !r.Check("user:a") {
		t.Fatal("an evicted client starts with a full bucket")
	}
}
