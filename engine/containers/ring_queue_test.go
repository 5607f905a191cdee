package containers

import "testing"

func TestRingQueueFIFOOrder(t *testing.T) {
	rq := NewRingQueue[int](4)

	for i := 1; i <= 3; i++ {
		if err := rq.Enqueue(i); err != nil {
			t.Fatalf("Enqueue(%d): %v", i, err)
		}
	}
	if rq.Len() != 3 {
		t.Fatalf("Len = %d, want 3", rq.Len())
	}
	for want := 1; want <= 3; want++ {
		got, err := rq.Dequeue()
		if err != nil {
			t.Fatalf("Dequeue: %v", err)
		}
		if got != want {
			t.Errorf("Dequeue = %d, want %d", got, want)
		}
	}
	if !rq.IsEmpty() {
		t.Error("queue not empty after draining")
	}
}

func TestRingQueueWrapAround(t *testing.T) {
	rq := NewRingQueue[string](2)

	rq.Enqueue("a")
	rq.Enqueue("b")
	if !rq.IsFull() {
		t.Fatal("queue should be full")
	}
	if err := rq.Enqueue("c"); err == nil {
		t.Error("Enqueue on a full queue should fail")
	}

	if got, _ := rq.Dequeue(); got != "a" {
		t.Fatalf("Dequeue = %q, want %q", got, "a")
	}
	if err := rq.Enqueue("c"); err != nil {
		t.Fatalf("Enqueue after wrap: %v", err)
	}
	if got, _ := rq.Dequeue(); got != "b" {
		t.Errorf("Dequeue = %q, want %q", got, "b")
	}
	if got, _ := rq.Dequeue(); got != "c" {
		t.Errorf("Dequeue = %q, want %q", got, "c")
	}
}

func TestRingQueueEmptyOperations(t *testing.T) {
	rq := NewRingQueue[int](1)

	if _, err := rq.Dequeue(); err == nil {
		t.Error("Dequeue on an empty queue should fail")
	}
	if _, err := rq.Peek(); err == nil {
		t.Error("Peek on an empty queue should fail")
	}

	rq.Enqueue(7)
	if got, err := rq.Peek(); err != nil || got != 7 {
		t.Errorf("Peek = %d, %v, want 7, nil", got, err)
	}
	if rq.Len() != 1 {
		t.Error("Peek consumed the element")
	}
}
