package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

// testResult stands in for a node result in store tests.
type testResult struct {
	Output string         `json:"output"`
	Extra  map[string]any `json:"extra,omitempty"`
}

// exerciseStore runs the behaviour every Store implementation must share.
func exerciseStore(t *testing.T, st Store[testResult]) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing run", func(t *testing.T) {
		if _, err := st.LoadSteps(ctx, "nope"); !errors.Is(err, ErrNotFound) {
			t.Errorf("LoadSteps error = %v, want ErrNotFound", err)
		}
		if _, _, err := st.LoadLatest(ctx, "nope"); !errors.Is(err, ErrNotFound) {
			t.Errorf("LoadLatest error = %v, want ErrNotFound", err)
		}
		if _, err := st.LoadRun(ctx, "nope"); !errors.Is(err, ErrNotFound) {
			t.Errorf("LoadRun error = %v, want ErrNotFound", err)
		}
	})

	t.Run("steps round trip in order", func(t *testing.T) {
		// Saved out of order on purpose.
		for _, s := range []struct {
			step int
			node string
			out  string
		}{{2, "B", "two"}, {1, "A", "one"}, {3, "C", "three"}} {
			if err := st.SaveStep(ctx, "run-1", s.step, s.node, testResult{Output: s.out}); err != nil {
				t.Fatalf("SaveStep(%d) error = %v", s.step, err)
			}
		}

		steps, err := st.LoadSteps(ctx, "run-1")
		if err != nil {
			t.Fatalf("LoadSteps error = %v", err)
		}
		if len(steps) != 3 {
			t.Fatalf("len(steps) = %d, want 3", len(steps))
		}
		for i, want := range []string{"A", "B", "C"} {
			if steps[i].NodeID != want || steps[i].Step != i+1 {
				t.Errorf("steps[%d] = %+v, want node %s step %d", i, steps[i], want, i+1)
			}
		}

		latest, step, err := st.LoadLatest(ctx, "run-1")
		if err != nil {
			t.Fatalf("LoadLatest error = %v", err)
		}
		if step != 3 || latest.Output != "three" {
			t.Errorf("LoadLatest = (%+v, %d), want (three, 3)", latest, step)
		}
	})

	t.Run("save step replaces", func(t *testing.T) {
		if err := st.SaveStep(ctx, "run-2", 1, "A", testResult{Output: "old"}); err != nil {
			t.Fatal(err)
		}
		if err := st.SaveStep(ctx, "run-2", 1, "A", testResult{Output: "new"}); err != nil {
			t.Fatal(err)
		}
		steps, err := st.LoadSteps(ctx, "run-2")
		if err != nil {
			t.Fatal(err)
		}
		if len(steps) != 1 || steps[0].Result.Output != "new" {
			t.Errorf("steps = %+v, want single replaced record", steps)
		}
	})

	t.Run("run summary", func(t *testing.T) {
		started := time.UnixMilli(1_700_000_000_000)
		rec := RunRecord{
			RunID:       "run-1",
			Status:      RunStatusCompleted,
			NodeCount:   3,
			FailedCount: 1,
			StartedAt:   started,
			FinishedAt:  started.Add(250 * time.Millisecond),
		}
		if err := st.SaveRun(ctx, rec); err != nil {
			t.Fatalf("SaveRun error = %v", err)
		}
		got, err := st.LoadRun(ctx, "run-1")
		if err != nil {
			t.Fatalf("LoadRun error = %v", err)
		}
		if got.Status != rec.Status || got.NodeCount != 3 || got.FailedCount != 1 {
			t.Errorf("LoadRun = %+v, want %+v", got, rec)
		}
		if !got.StartedAt.Equal(rec.StartedAt) || !got.FinishedAt.Equal(rec.FinishedAt) {
			t.Errorf("timestamps = %v/%v, want %v/%v", got.StartedAt, got.FinishedAt, rec.StartedAt, rec.FinishedAt)
		}

		if err := st.SaveRun(ctx, RunRecord{}); err == nil {
			t.Error("SaveRun with empty id should fail")
		}
	})
}
