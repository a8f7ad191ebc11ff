package events_test

import (
	"testing"

	"github.com/ardanlabs/utxochain/foundation/events"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_SendReceive(t *testing.T) {
	t.Log("Given the need to fan out ledger events to subscribers.")
	{
		evts := events.New(2)
		defer evts.Shutdown()

		ch1 := evts.Acquire("one")
		ch2 := evts.Acquire("two")

		if again := evts.Acquire("one"); again != ch1 {
			t.Fatalf("\t%s\tShould get the same channel when acquiring an id twice.", failed)
		}
		t.Logf("\t%s\tShould get the same channel when acquiring an id twice.", success)

		if n := evts.Send("state: AppendBlock: appended"); n != 2 {
			t.Fatalf("\t%s\tShould deliver to 2 subscribers, got %d.", failed, n)
		}
		t.Logf("\t%s\tShould deliver to 2 subscribers.", success)

		for _, ch := range []<-chan string{ch1, ch2} {
			if msg := <-ch; msg != "state: AppendBlock: appended" {
				t.Fatalf("\t%s\tShould receive the message, got %q.", failed, msg)
			}
		}
		t.Logf("\t%s\tShould receive the message on every channel.", success)
	}
}

func Test_SlowSubscriber(t *testing.T) {
	t.Log("Given the need to never block on a slow subscriber.")
	{
		evts := events.New(1)
		defer evts.Shutdown()

		evts.Acquire("slow")

		evts.Send("first")
		if n := evts.Send("second"); n != 0 {
			t.Fatalf("\t%s\tShould not deliver to a full channel, got %d.", failed, n)
		}
		t.Logf("\t%s\tShould not deliver to a full channel.", success)

		if evts.Dropped() != 1 {
			t.Fatalf("\t%s\tShould count one dropped message, got %d.", failed, evts.Dropped())
		}
		t.Logf("\t%s\tShould count one dropped message.", success)
	}
}

func Test_Release(t *testing.T) {
	t.Log("Given the need to release subscribers.")
	{
		evts := events.New(0)

		ch := evts.Acquire("one")
		if err := evts.Release("one"); err != nil {
			t.Fatalf("\t%s\tShould be able to release the subscriber: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to release the subscriber.", success)

		if _, open := <-ch; open {
			t.Fatalf("\t%s\tShould close the channel on release.", failed)
		}
		t.Logf("\t%s\tShould close the channel on release.", success)

		if err := evts.Release("one"); err == nil {
			t.Fatalf("\t%s\tShould not release an unknown subscriber.", failed)
		}
		t.Logf("\t%s\tShould not release an unknown subscriber.", success)

		evts.Acquire("two")
		evts.Shutdown()
		if evts.Subscribers() != 0 {
			t.Fatalf("\t%s\tShould remove every subscriber on shutdown.", failed)
		}
		t.Logf("\t%s\tShould remove every subscriber on shutdown.", success)
	}
}
