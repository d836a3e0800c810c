package reactive

import "testing"

func TestParseFlushMode(t *testing.T) {
	tests := []struct {
		in      string
		want    FlushMode
		wantErr bool
	}{
		{"", FlushPre, false},
		{"pre", FlushPre, false},
		{"post", FlushPost, false},
		{"sync", FlushSync, false},
		{"later", FlushPre, true},
	}

	for _, tt := range tests {
		got, err := ParseFlushMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFlushMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseFlushMode(%q) = %v, want %v", tt.in, got, tt.want)
		}
		if !tt.wantErr && tt.in != "" && got.String() != tt.in {
			t.Errorf("String() = %q, want %q", got.String(), tt.in)
		}
	}
}

func TestQueueJobCoalesces(t *testing.T) {
	Flush()

	id := nextID()
	runs := 0
	if !QueueJob(FlushPre, id, func() { runs++ }) {
		t.Fatal("first QueueJob should queue")
	}
	if QueueJob(FlushPre, id, func() { runs++ }) {
		t.Error("second QueueJob with the same id should coalesce")
	}

	Flush()
	if runs != 1 {
		t.Errorf("expected 1 run, got %d", runs)
	}
	if PendingJobs() != 0 {
		t.Errorf("expected empty queues, got %d", PendingJobs())
	}
}

func TestFlushRunsPreBeforePost(t *testing.T) {
	Flush()

	var order []string
	QueueJob(FlushPost, nextID(), func() { order = append(order, "post") })
	QueueJob(FlushPre, nextID(), func() { order = append(order, "pre1") })
	QueueJob(FlushPre, nextID(), func() { order = append(order, "pre2") })

	Flush()

	want := []string{"pre1", "pre2", "post"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestSyncJobRunsImmediately(t *testing.T) {
	ran := false
	QueueJob(FlushSync, nextID(), func() { ran = true })
	if !ran {
		t.Error("sync job should run inside QueueJob")
	}
}

func TestJobQueuedDuringFlushRunsSameCycle(t *testing.T) {
	Flush()

	runs := 0
	QueueJob(FlushPre, nextID(), func() {
		QueueJob(FlushPost, nextID(), func() { runs++ })
		Flush() // nested flush is a no-op
	})

	Flush()
	if runs != 1 {
		t.Errorf("job queued during flush should run in the same cycle, got %d", runs)
	}
}
