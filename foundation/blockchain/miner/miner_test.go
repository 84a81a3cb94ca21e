package miner_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/btnlabs/blockchain/foundation/blockchain/digest"
	"github.com/btnlabs/blockchain/foundation/blockchain/miner"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// impossible can't be solved in the lifetime of a test.
const impossible = 64

func Test_Solve(t *testing.T) {
	t.Log("Given the need to find a nonce that satisfies a difficulty.")
	{
		for difficulty := uint16(0); difficulty <= 3; difficulty++ {
			testID := int(difficulty)
			t.Logf("\tTest %d:\tWhen handling difficulty %d.", testID, difficulty)
			{
				const blockData = `{"number":1,"prev_block_hash":"abc"}`

				sol, err := miner.Solve(context.Background(), blockData, difficulty)
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to find a solution: %v", failed, testID, err)
				}
				t.Logf("\t%s\tTest %d:\tShould be able to find a solution.", success, testID)

				if sol.Hash != digest.PowHash(blockData, sol.Nonce) {
					t.Fatalf("\t%s\tTest %d:\tShould get a hash that matches the nonce.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould get a hash that matches the nonce.", success, testID)

				if !strings.HasPrefix(sol.Hash, strings.Repeat("0", int(difficulty))) {
					t.Fatalf("\t%s\tTest %d:\tShould get a hash with %d leading zeros: %s", failed, testID, difficulty, sol.Hash)
				}
				t.Logf("\t%s\tTest %d:\tShould get a hash with %d leading zeros.", success, testID, difficulty)

				if difficulty == 0 && sol.HashCount != 1 {
					t.Fatalf("\t%s\tTest %d:\tShould solve difficulty 0 on the first attempt, got %d.", failed, testID, sol.HashCount)
				}
			}
		}

		testID := 4
		t.Logf("\tTest %d:\tWhen the context is cancelled.", testID)
		{
			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
			defer cancel()

			if _, err := miner.Solve(ctx, "data", impossible); !errors.Is(err, miner.ErrCancelled) {
				t.Fatalf("\t%s\tTest %d:\tShould return a cancelled error: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould return a cancelled error.", success, testID)
		}
	}
}

func Test_Messages(t *testing.T) {
	t.Log("Given the need to drive the miner with messages.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen starting a search.", testID)
		{
			m := miner.New(nil)
			defer m.Shutdown()

			m.Start("block-data", 2)

			select {
			case sol := <-m.Solutions():
				if sol.Type != miner.TypeSolution || !digest.IsHashSolved(2, sol.Hash) {
					t.Fatalf("\t%s\tTest %d:\tShould get a valid solution: %+v", failed, testID, sol)
				}
				if sol.HashCount == 0 {
					t.Fatalf("\t%s\tTest %d:\tShould report the attempts made.", failed, testID)
				}
			case <-time.After(5 * time.Second):
				t.Fatalf("\t%s\tTest %d:\tShould get a solution in time.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould get a valid solution.", success, testID)

			if m.Status() != miner.Found {
				t.Fatalf("\t%s\tTest %d:\tShould be in the found state, got %s.", failed, testID, m.Status())
			}
			t.Logf("\t%s\tTest %d:\tShould be in the found state.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen stopping a search.", testID)
		{
			m := miner.New(nil)
			defer m.Shutdown()

			m.Start("block-data", impossible)
			waitStatus(t, m, miner.Searching)
			m.Stop()
			waitStatus(t, m, miner.Cancelled)

			select {
			case sol := <-m.Solutions():
				t.Fatalf("\t%s\tTest %d:\tShould not get a solution after stop: %+v", failed, testID, sol)
			case <-time.After(100 * time.Millisecond):
			}
			t.Logf("\t%s\tTest %d:\tShould not get a solution after stop.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen replacing a search with a new one.", testID)
		{
			m := miner.New(nil)
			defer m.Shutdown()

			m.Start("old-data", impossible)
			m.Start("new-data", 1)

			select {
			case sol := <-m.Solutions():
				if sol.Hash != digest.PowHash("new-data", sol.Nonce) {
					t.Fatalf("\t%s\tTest %d:\tShould get a solution for the newest block data.", failed, testID)
				}
			case <-time.After(5 * time.Second):
				t.Fatalf("\t%s\tTest %d:\tShould get a solution in time.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould get a solution for the newest block data.", success, testID)
		}
	}
}

func Test_HashCount(t *testing.T) {
	t.Log("Given the need to report the hash rate of the miner.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen querying a running search.", testID)
		{
			m := miner.New(nil)
			defer m.Shutdown()

			m.Start("block-data", impossible)
			time.Sleep(50 * time.Millisecond)

			if n := m.GetHashCount(); n == 0 {
				t.Fatalf("\t%s\tTest %d:\tShould report attempts while searching.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould report attempts while searching.", success, testID)

			m.Stop()
			waitStatus(t, m, miner.Cancelled)
			time.Sleep(20 * time.Millisecond)
			m.GetHashCount()

			if n := m.GetHashCount(); n != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould reset the count after each query, got %d.", failed, testID, n)
			}
			t.Logf("\t%s\tTest %d:\tShould reset the count after each query.", success, testID)

			m.Send(miner.Message{Type: miner.TypeGetHashCount})
			select {
			case hc := <-m.HashCounts():
				if hc.Type != miner.TypeHashCount || hc.Count != 0 {
					t.Fatalf("\t%s\tTest %d:\tShould get a hashCount message: %+v", failed, testID, hc)
				}
			case <-time.After(time.Second):
				t.Fatalf("\t%s\tTest %d:\tShould get a hashCount message in time.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould get a hashCount message.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen querying concurrently.", testID)
		{
			m := miner.New(nil)
			defer m.Shutdown()

			m.Start("block-data", impossible)

			var wg sync.WaitGroup
			wg.Add(10)
			for i := 0; i < 10; i++ {
				go func() {
					defer wg.Done()
					for j := 0; j < 10; j++ {
						m.GetHashCount()
					}
				}()
			}
			wg.Wait()
			t.Logf("\t%s\tTest %d:\tShould be safe to query concurrently.", success, testID)
		}
	}
}

// =============================================================================

func waitStatus(t *testing.T, m *miner.Miner, status miner.Status) {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if m.Status() == status {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("\t%s\tShould reach status %s, got %s.", failed, status, m.Status())
}
