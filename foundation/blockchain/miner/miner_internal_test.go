package miner

import (
	"testing"
	"time"
)

func Test_UnreadHashCounts(t *testing.T) {
	const (
		success = "\u2713"
		failed  = "\u2717"
	)

	t.Log("Given the need to keep every attempt when hashCount replies are not read.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen two getHashCount messages are sent without reading.", testID)
		{
			m := New(nil)
			defer m.Shutdown()

			m.hashCount.Add(5)
			m.Send(Message{Type: TypeGetHashCount})
			m.hashCount.Add(7)
			m.Send(Message{Type: TypeGetHashCount})

			// The inbox is ordered so both messages are handled once this returns.
			if n := m.GetHashCount(); n != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould have nothing left on the counter, got %d.", failed, testID, n)
			}
			t.Logf("\t%s\tTest %d:\tShould have nothing left on the counter.", success, testID)

			select {
			case hc := <-m.HashCounts():
				if hc.Count != 12 {
					t.Fatalf("\t%s\tTest %d:\tShould report every attempt in one reply, got %d.", failed, testID, hc.Count)
				}
			case <-time.After(time.Second):
				t.Fatalf("\t%s\tTest %d:\tShould get a hashCount message in time.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould report every attempt in one reply.", success, testID)

			select {
			case hc := <-m.HashCounts():
				t.Fatalf("\t%s\tTest %d:\tShould have a single pending reply, got %+v.", failed, testID, hc)
			default:
			}
			t.Logf("\t%s\tTest %d:\tShould have a single pending reply.", success, testID)
		}
	}
}
