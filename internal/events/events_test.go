package events

import "testing"

func TestBusDeliversInOrder(t *testing.T) {
	b := NewBus()
	ch := b.Subscribe(8)

	for i := 0; i < 3; i++ {
		b.Publish(Event{Kind: Collision, Car: i, Time: float64(i)})
	}
	b.Close()

	i := 0
	for e := range ch {
		if e.Car != i {
			t.Errorf("event %d: got car %d", i, e.Car)
		}
		i++
	}
	if i != 3 {
		t.Errorf("received %d events, want 3", i)
	}
}

func TestBusDropsWhenSubscriberFull(t *testing.T) {
	b := NewBus()
	ch := b.Subscribe(2)

	for i := 0; i < 5; i++ {
		b.Publish(Event{Kind: Derailment, Car: i})
	}
	b.Close()

	var got []int
	for e := range ch {
		got = append(got, e.Car)
	}
	// only the first two fit; the rest were dropped, never blocked
	if len(got) != 2 || got[0] != 0 || got[1] != 1 {
		t.Errorf("got events %v, want [0 1]", got)
	}
}

func TestBusFansOutToAllSubscribers(t *testing.T) {
	b := NewBus()
	a := b.Subscribe(4)
	c := b.Subscribe(4)

	b.Publish(Event{Kind: BufferImpact, Train: "local"})
	b.Close()

	ea, oka := <-a
	ec, okc := <-c
	if !oka || !okc {
		t.Fatal("both subscribers should receive the event")
	}
	if ea.Train != "local" || ec.Train != "local" {
		t.Errorf("got trains %q and %q", ea.Train, ec.Train)
	}
}

func TestBusCloseIsFinal(t *testing.T) {
	b := NewBus()
	ch := b.Subscribe(1)
	b.Close()
	b.Close()

	b.Publish(Event{Kind: CouplerImpact})
	if _, ok := <-ch; ok {
		t.Error("subscriber channel should be closed with no events")
	}

	late := b.Subscribe(1)
	if _, ok := <-late; ok {
		t.Error("late subscriber should get a closed channel")
	}
}

func TestKindString(t *testing.T) {
	cases := map[Kind]string{
		Derailment:    "derailment",
		Collision:     "collision",
		BufferImpact:  "buffer_impact",
		CouplerImpact: "coupler_impact",
		Kind(42):      "unknown",
	}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", int(k), got, want)
		}
	}
}
