package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestChunks(t *testing.T) {
	tests := []struct {
		name  string
		n     int
		parts int
		want  []Range
	}{
		{"even", 8, 4, []Range{{0, 2}, {2, 4}, {4, 6}, {6, 8}}},
		{"remainder goes last", 10, 4, []Range{{0, 2}, {2, 4}, {4, 6}, {6, 10}}},
		{"fewer items than parts", 2, 4, []Range{{0, 0}, {0, 0}, {0, 0}, {0, 2}}},
		{"empty", 0, 3, []Range{{0, 0}, {0, 0}, {0, 0}}},
		{"single part", 5, 1, []Range{{0, 5}}},
		{"parts clamped to one", 5, 0, []Range{{0, 5}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Chunks(tt.n, tt.parts)
			if len(got) != len(tt.want) {
				t.Fatalf("Chunks(%d, %d) = %v; want %v", tt.n, tt.parts, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Chunks(%d, %d) = %v; want %v", tt.n, tt.parts, got, tt.want)
					break
				}
			}
		})
	}
}

func TestChunks_CoverDisjoint(t *testing.T) {
	for n := 0; n < 50; n++ {
		for parts := 1; parts < 9; parts++ {
			next := 0
			for _, r := range Chunks(n, parts) {
				if r.Start != next || r.End < r.Start {
					t.Fatalf("Chunks(%d, %d): range %v does not follow %d", n, parts, r, next)
				}
				next = r.End
			}
			if next != n {
				t.Fatalf("Chunks(%d, %d) covers [0, %d)", n, parts, next)
			}
		}
	}
}

func TestPool_RunVisitsEveryItemOnce(t *testing.T) {
	p := NewPool(context.Background(), 4)
	defer p.Stop()

	const n = 1003
	hits := make([]int32, n)
	for step := 0; step < 5; step++ {
		err := p.Run(n, func(_ int, r Range) error {
			for i := r.Start; i < r.End; i++ {
				hits[i]++
			}
			return nil
		})
		if err != nil {
			t.Fatalf("step %d: Run() error = %v", step, err)
		}
	}
	for i, h := range hits {
		if h != 5 {
			t.Fatalf("item %d processed %d times; want 5", i, h)
		}
	}
}

func TestPool_WorkersKeepTheirChunk(t *testing.T) {
	p := NewPool(context.Background(), 3)
	defer p.Stop()

	owner := make([]int, 9)
	err := p.Run(9, func(w int, r Range) error {
		for i := r.Start; i < r.End; i++ {
			owner[i] = w
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := []int{0, 0, 0, 1, 1, 1, 2, 2, 2}
	for i := range want {
		if owner[i] != want[i] {
			t.Errorf("owners = %v; want %v", owner, want)
			break
		}
	}
}

func TestPool_StatesAfterRun(t *testing.T) {
	p := NewPool(context.Background(), 2)
	for _, s := range p.States() {
		if s != Idle {
			t.Errorf("initial state = %v; want idle", s)
		}
	}
	if err := p.Run(10, func(int, Range) error { return nil }); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	for w, s := range p.States() {
		if s != Done {
			t.Errorf("worker %d state = %v; want done", w, s)
		}
	}
	if err := p.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	for w, s := range p.States() {
		if s != Stopped {
			t.Errorf("worker %d state = %v; want stopped", w, s)
		}
	}
}

func TestPool_EmptyChunksReachDone(t *testing.T) {
	p := NewPool(context.Background(), 4)
	defer p.Stop()

	var calls atomic.Int32
	if err := p.Run(2, func(int, Range) error { calls.Add(1); return nil }); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("task called %d times; want 1, empty chunks are skipped", calls.Load())
	}
	for w, s := range p.States() {
		if s != Done {
			t.Errorf("worker %d state = %v; want done", w, s)
		}
	}
}

func TestPool_EmptyRunIsNoop(t *testing.T) {
	p := NewPool(context.Background(), 2)
	defer p.Stop()

	var calls atomic.Int32
	if err := p.Run(0, func(int, Range) error { calls.Add(1); return nil }); err != nil {
		t.Fatalf("Run(0) error = %v", err)
	}
	if calls.Load() != 0 {
		t.Errorf("task called %d times on an empty range", calls.Load())
	}
}

func TestPool_ErrorsAreJoined(t *testing.T) {
	p := NewPool(context.Background(), 4)
	defer p.Stop()

	errOdd := errors.New("odd chunk")
	err := p.Run(8, func(w int, r Range) error {
		if w%2 == 1 {
			return errOdd
		}
		return nil
	})
	if !errors.Is(err, errOdd) {
		t.Fatalf("Run() error = %v; want %v", err, errOdd)
	}
	joined, ok := err.(interface{ Unwrap() []error })
	if !ok || len(joined.Unwrap()) != 2 {
		t.Errorf("Run() error = %v; want two joined errors", err)
	}

	// the pool survives a failed step
	if err := p.Run(8, func(int, Range) error { return nil }); err != nil {
		t.Errorf("Run() after failure error = %v", err)
	}
}

func TestPool_PanicBecomesError(t *testing.T) {
	p := NewPool(context.Background(), 2)
	defer p.Stop()

	err := p.Run(4, func(w int, r Range) error {
		if w == 1 {
			panic("boom")
		}
		return nil
	})
	if err == nil {
		t.Fatal("Run() error = nil; want recovered panic")
	}
	if err := p.Run(4, func(int, Range) error { return nil }); err != nil {
		t.Errorf("Run() after panic error = %v", err)
	}
}

func TestPool_RunAfterStop(t *testing.T) {
	p := NewPool(context.Background(), 2)
	if err := p.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if err := p.Stop(); err != nil {
		t.Fatalf("second Stop() error = %v", err)
	}
	if err := p.Run(4, func(int, Range) error { return nil }); !errors.Is(err, ErrPoolStopped) {
		t.Errorf("Run() after Stop error = %v; want %v", err, ErrPoolStopped)
	}
}

func TestPool_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := NewPool(ctx, 3)
	cancel()
	if err := p.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if err := p.Run(3, func(int, Range) error { return nil }); !errors.Is(err, ErrPoolStopped) {
		t.Errorf("Run() after cancel error = %v; want %v", err, ErrPoolStopped)
	}
}

func TestPool_CancelDuringRunFinishesEveryChunk(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := NewPool(ctx, 4)
	defer p.Stop()

	const n = 400
	hits := make([]int32, n)
	err := p.Run(n, func(w int, r Range) error {
		if w == 0 {
			// the other chunks are queued by now, some not yet picked up
			cancel()
			time.Sleep(10 * time.Millisecond)
		}
		for i := r.Start; i < r.End; i++ {
			hits[i]++
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Run() canceled midway error = %v; want nil", err)
	}
	for i, h := range hits {
		if h != 1 {
			t.Fatalf("item %d processed %d times; want 1", i, h)
		}
	}

	if err := p.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if err := p.Run(n, func(int, Range) error { return nil }); !errors.Is(err, ErrPoolStopped) {
		t.Errorf("Run() after cancel error = %v; want %v", err, ErrPoolStopped)
	}
}

func TestPool_DefaultWorkers(t *testing.T) {
	p := NewPool(context.Background(), 0)
	defer p.Stop()
	if p.Workers() < 1 {
		t.Errorf("Workers() = %d; want at least 1", p.Workers())
	}
}

func BenchmarkPool_Run(b *testing.B) {
	p := NewPool(context.Background(), 4)
	defer p.Stop()
	data := make([]float64, 100000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = p.Run(len(data), func(_ int, r Range) error {
			for j := r.Start; j < r.End; j++ {
				data[j] += 1
			}
			return nil
		})
	}
}
