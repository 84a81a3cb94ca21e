package merkle_test

import (
	"crypto/sha256"
	"testing"

	"github.com/btnlabs/blockchain/foundation/blockchain/digest"
	"github.com/btnlabs/blockchain/foundation/blockchain/merkle"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// Data uses the sha256 hashing algorithm for the merkle tree.
type Data struct {
	x string
}

// Hash hashes the values using sha256.
func (d Data) Hash() ([]byte, error) {
	h := sha256.Sum256([]byte(d.x))
	return h[:], nil
}

// Equals tests for equality of two piece of data.
func (d Data) Equals(other Data) bool {
	return d.x == other.x
}

func Test_Proofs(t *testing.T) {
	type table struct {
		name string
		data []Data
	}

	tt := []table{
		{name: "one", data: []Data{{x: "Hello"}}},
		{name: "even", data: []Data{{x: "Hello"}, {x: "Hi"}, {x: "Hey"}, {x: "Hola"}}},
		{name: "odd", data: []Data{{x: "Hello"}, {x: "Hi"}, {x: "Hey"}, {x: "Greetings"}, {x: "Hola"}}},
		{name: "nine", data: []Data{{x: "1"}, {x: "2"}, {x: "3"}, {x: "4"}, {x: "5"}, {x: "6"}, {x: "7"}, {x: "8"}, {x: "9"}}},
	}

	t.Log("Given the need to prove values are part of a merkle tree.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen handling a tree of %d values.", testID, len(tst.data))
				{
					tree, err := merkle.NewTree(tst.data)
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to construct the tree: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to construct the tree.", success, testID)

					for _, d := range tst.data {
						proof, err := tree.Proof(d)
						if err != nil {
							t.Fatalf("\t%s\tTest %d:\tShould be able to get a proof for %q: %v", failed, testID, d.x, err)
						}

						if err := merkle.VerifyProof(d, proof, tree.Root()); err != nil {
							t.Fatalf("\t%s\tTest %d:\tShould be able to verify the proof for %q: %v", failed, testID, d.x, err)
						}
					}
					t.Logf("\t%s\tTest %d:\tShould be able to verify a proof for every value.", success, testID)

					proof, _ := tree.Proof(tst.data[0])
					if err := merkle.VerifyProof(Data{x: "NotInTree"}, proof, tree.Root()); err == nil {
						t.Fatalf("\t%s\tTest %d:\tShould fail to verify a value not in the tree.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould fail to verify a value not in the tree.", success, testID)

					if _, err := tree.Proof(Data{x: "NotInTree"}); err == nil {
						t.Fatalf("\t%s\tTest %d:\tShould not get a proof for a value not in the tree.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould not get a proof for a value not in the tree.", success, testID)
				}
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_Root(t *testing.T) {
	t.Log("Given the need to commit to a set of values.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen handling changes to the values.", testID)
		{
			empty, err := merkle.NewTree[Data](nil)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to construct an empty tree: %v", failed, testID, err)
			}

			if empty.RootHex() != digest.ZeroHash {
				t.Fatalf("\t%s\tTest %d:\tShould get the zero hash for an empty tree: %s", failed, testID, empty.RootHex())
			}
			t.Logf("\t%s\tTest %d:\tShould get the zero hash for an empty tree.", success, testID)

			t1, _ := merkle.NewTree([]Data{{x: "a"}, {x: "b"}, {x: "c"}})
			t2, _ := merkle.NewTree([]Data{{x: "a"}, {x: "b"}, {x: "c"}})
			t3, _ := merkle.NewTree([]Data{{x: "a"}, {x: "c"}, {x: "b"}})

			if t1.RootHex() != t2.RootHex() {
				t.Fatalf("\t%s\tTest %d:\tShould get the same root for the same values.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould get the same root for the same values.", success, testID)

			if t1.RootHex() == t3.RootHex() {
				t.Fatalf("\t%s\tTest %d:\tShould get a different root when the order changes.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould get a different root when the order changes.", success, testID)

			if len(t1.Values()) != 3 {
				t.Fatalf("\t%s\tTest %d:\tShould get back the original values, got %d.", failed, testID, len(t1.Values()))
			}
			t.Logf("\t%s\tTest %d:\tShould get back the original values.", success, testID)
		}
	}
}
