package events

import "testing"

func TestPublishFansOutToAllSubscribers(t *testing.T) {
	b := New()
	chA, unsubA := b.Subscribe(4)
	defer unsubA()
	chB, unsubB := b.Subscribe(4)
	defer unsubB()

	b.Publish(TaskEvent{TaskID: "t1", NewStatus: "searching"})

	evA := <-chA
	evB := <-chB
	if evA.TaskID != "t1" || evB.TaskID != "t1" {
		t.Fatalf("got %+v, %+v", evA, evB)
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe(1)
	defer unsub()

	b.Publish(TaskEvent{TaskID: "t1"})
	b.Publish(TaskEvent{TaskID: "t2"}) // buffer full, dropped rather than blocking

	ev := <-ch
	if ev.TaskID != "t1" {
		t.Fatalf("TaskID = %q, want t1", ev.TaskID)
	}
	select {
	case extra := <-ch:
		t.Fatalf("unexpected second event: %+v", extra)
	default:
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := New()
	_, unsub := b.Subscribe(1)
	unsub()
	if b.SubscriberCount() != 0 {
		t.Fatalf("SubscriberCount = %d, want 0", b.SubscriberCount())
	}
	b.Publish(TaskEvent{TaskID: "t1"}) // must not panic on closed/removed subscriber
}
