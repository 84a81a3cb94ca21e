package digest_test

import (
	"strings"
	"testing"

	"github.com/btnlabs/blockchain/foundation/blockchain/digest"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_PowHash(t *testing.T) {
	t.Log("Given the need to hash block data with a nonce.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen handling the same block data.", testID)
		{
			h1 := digest.PowHash(`{"number":1}`, 42)
			h2 := digest.PowHash(`{"number":1}`, 42)
			if h1 != h2 {
				t.Fatalf("\t%s\tTest %d:\tShould get the same hash for the same input: %s != %s", failed, testID, h1, h2)
			}
			t.Logf("\t%s\tTest %d:\tShould get the same hash for the same input.", success, testID)

			if len(h1) != digest.Size || strings.ToLower(h1) != h1 {
				t.Fatalf("\t%s\tTest %d:\tShould get a 64 char lowercase hex hash: %s", failed, testID, h1)
			}
			t.Logf("\t%s\tTest %d:\tShould get a 64 char lowercase hex hash.", success, testID)

			if h3 := digest.PowHash(`{"number":1}`, 43); h3 == h1 {
				t.Fatalf("\t%s\tTest %d:\tShould get a different hash for a different nonce.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould get a different hash for a different nonce.", success, testID)

			if digest.PowHash(`{"number":1}4`, 2) != digest.PowHash(`{"number":1}`, 42) {
				t.Fatalf("\t%s\tTest %d:\tShould append the nonce as a decimal string.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould append the nonce as a decimal string.", success, testID)
		}
	}
}

func Test_IsHashSolved(t *testing.T) {
	type table struct {
		name       string
		difficulty uint16
		hash       string
		solved     bool
	}

	tt := []table{
		{name: "zero", difficulty: 0, hash: "f" + strings.Repeat("a", 63), solved: true},
		{name: "two", difficulty: 2, hash: "00" + strings.Repeat("a", 62), solved: true},
		{name: "short", difficulty: 3, hash: "00" + strings.Repeat("a", 62), solved: false},
		{name: "badlen", difficulty: 1, hash: "00aa", solved: false},
		{name: "zerohash", difficulty: 64, hash: digest.ZeroHash, solved: true},
	}

	t.Log("Given the need to validate the difficulty of a hash.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen handling hash %q at difficulty %d.", testID, tst.name, tst.difficulty)
				{
					if got := digest.IsHashSolved(tst.difficulty, tst.hash); got != tst.solved {
						t.Fatalf("\t%s\tTest %d:\tShould get solved=%t, got %t.", failed, testID, tst.solved, got)
					}
					t.Logf("\t%s\tTest %d:\tShould get solved=%t.", success, testID, tst.solved)
				}
			}

			t.Run(tst.name, f)
		}
	}
}
