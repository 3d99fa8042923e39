package redisstore

import (
	"context"
	"testing"
	"time"
)

func TestTutorRateKey(t *testing.T) {
	w := time.Unix(1700000040, 0)
	if got := tutorRateKey(7, w); got != "tutor:rate:7:1700000040" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestAllowTutorRequest_DisabledLimitSkipsRedis(t *testing.T) {
	// no server is listening here; a zero limit must not touch redis
	s := New("127.0.0.1:1", "", 0)
	defer s.Close()
	ok, err := s.AllowTutorRequest(context.Background(), 1, 0)
	if err != nil || !ok {
		t.Fatalf("expected allow without error, got ok=%v err=%v", ok, err)
	}
}
