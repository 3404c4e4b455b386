package coordinator

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/kolkov/sharedcounter/internal/counter"
	"github.com/kolkov/sharedcounter/internal/worker"
)

// TestRun_FinalValueIsZero verifies the full-size program ends at 0.
func TestRun_FinalValueIsZero(t *testing.T) {
	res, err := New().Run()
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if res.Value != 0 {
		t.Errorf("final value = %d, want 0", res.Value)
	}
	if res.Iterations != worker.DefaultIterations {
		t.Errorf("Iterations = %d, want %d", res.Iterations, worker.DefaultIterations)
	}
}

// TestRun_Repeated checks the aggregate is 0 on every run, not on average.
func TestRun_Repeated(t *testing.T) {
	runs := 100
	iterations := 20_000
	if testing.Short() {
		runs = 10
	}

	for i := 0; i < runs; i++ {
		res, err := New(WithIterations(iterations)).Run()
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		if res.Value != 0 {
			t.Fatalf("run %d: final value = %d, want 0", i, res.Value)
		}
	}
}

// TestLifecycle walks the state machine one step at a time.
func TestLifecycle(t *testing.T) {
	c := New(WithIterations(1000))
	if c.State() != Created {
		t.Fatalf("initial state = %v, want created", c.State())
	}

	if err := c.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if c.State() != Running {
		t.Fatalf("state after Start = %v, want running", c.State())
	}

	if err := c.Join(); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if c.State() != Joined {
		t.Fatalf("state after Join = %v, want joined", c.State())
	}

	v, err := c.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if v != 0 {
		t.Errorf("Finish() = %d, want 0", v)
	}
	if c.State() != Done {
		t.Fatalf("state after Finish = %v, want done", c.State())
	}
}

// TestInvalidTransitions verifies out-of-order calls are rejected.
func TestInvalidTransitions(t *testing.T) {
	t.Run("Join before Start", func(t *testing.T) {
		err := New().Join()
		assertStateError(t, err, Created)
	})

	t.Run("Finish before Join", func(t *testing.T) {
		c := New(WithIterations(10))
		if err := c.Start(); err != nil {
			t.Fatal(err)
		}
		_, err := c.Finish()
		assertStateError(t, err, Running)
		if err := c.Join(); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("Start twice", func(t *testing.T) {
		c := New(WithIterations(10))
		if err := c.Start(); err != nil {
			t.Fatal(err)
		}
		assertStateError(t, c.Start(), Running)
		if err := c.Join(); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("Run after Done", func(t *testing.T) {
		c := New(WithIterations(10))
		if _, err := c.Run(); err != nil {
			t.Fatal(err)
		}
		_, err := c.Run()
		assertStateError(t, err, Done)
	})
}

func assertStateError(t *testing.T, err error, from State) {
	t.Helper()
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("error = %v, want ErrInvalidTransition", err)
	}
	var se *StateError
	if !errors.As(err, &se) {
		t.Fatalf("error %T is not *StateError", err)
	}
	if se.From != from {
		t.Errorf("StateError.From = %v, want %v", se.From, from)
	}
}

func TestState_String(t *testing.T) {
	tests := []struct {
		s    State
		want string
	}{
		{Created, "created"},
		{Running, "running"},
		{Joined, "joined"},
		{Done, "done"},
		{State(9), "state(9)"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", int(tt.s), got, tt.want)
		}
	}
}

// TestSnapshot_BeforeJoin shows why the join barrier is required.
//
// The snapshot taken while Running is an unspecified intermediate value;
// it is only bounded by the number of steps a single worker can make.
func TestSnapshot_BeforeJoin(t *testing.T) {
	const iterations = 200_000

	c := New(WithIterations(iterations))
	if err := c.Start(); err != nil {
		t.Fatal(err)
	}
	early := c.Snapshot()
	if err := c.Join(); err != nil {
		t.Fatal(err)
	}
	final, err := c.Finish()
	if err != nil {
		t.Fatal(err)
	}

	if early < -iterations || early > iterations {
		t.Errorf("snapshot %d outside [-%d, %d]", early, iterations, iterations)
	}
	if final != 0 {
		t.Errorf("final value = %d, want 0", final)
	}
	t.Logf("snapshot before join: %d", early)
}

// TestHooks verifies fork and join hooks fire once per worker.
func TestHooks(t *testing.T) {
	var (
		mu     sync.Mutex
		forked []worker.Direction
		joined []worker.Direction
	)
	shared := counter.NewGuarded()

	c := New(
		WithIterations(500),
		WithCounter(shared),
		WithHooks(Hooks{
			Fork: func(w worker.Worker) counter.Counter {
				mu.Lock()
				defer mu.Unlock()
				forked = append(forked, w.Direction)
				return nil
			},
			Joined: func(w worker.Worker) {
				mu.Lock()
				defer mu.Unlock()
				joined = append(joined, w.Direction)
			},
		}),
	)

	res, err := c.Run()
	if err != nil {
		t.Fatal(err)
	}
	if res.Value != 0 {
		t.Errorf("final value = %d, want 0", res.Value)
	}
	if len(forked) != 2 || len(joined) != 2 {
		t.Fatalf("hooks fired fork=%d join=%d, want 2 each", len(forked), len(joined))
	}
	if forked[0] != worker.Up || forked[1] != worker.Down {
		t.Errorf("fork order = %v, want [incrementer decrementer]", forked)
	}
	if c.Counter() != counter.Counter(shared) {
		t.Error("Counter() did not return the injected counter")
	}
}

// TestLogger verifies lifecycle events are logged at debug level.
func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	l := zerolog.New(&buf).Level(zerolog.DebugLevel)

	if _, err := New(WithIterations(10), WithLogger(l)).Run(); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	for _, want := range []string{"worker started", "workers joined", "run done"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestNew_NegativeIterations(t *testing.T) {
	res, err := New(WithIterations(-5)).Run()
	if err != nil {
		t.Fatal(err)
	}
	if res.Iterations != 0 || res.Value != 0 {
		t.Errorf("result = %+v, want zero iterations and value", res)
	}
}

func BenchmarkRun(b *testing.B) {
	for i := 0; i < b.N; i++ {
		if _, err := New(WithIterations(10_000)).Run(); err != nil {
			b.Fatal(err)
		}
	}
}
