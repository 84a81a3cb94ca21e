package peer_test

import (
	"testing"

	"github.com/btnlabs/blockchain/foundation/blockchain/peer"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_CRUD(t *testing.T) {
	type table struct {
		name  string
		hosts []string
		peers []peer.Peer
		total int
	}

	tt := []table{
		{
			name:  "basic",
			peers: []peer.Peer{{Host: "host1"}, {Host: "host2"}, {Host: "host3"}},
			total: 3,
		},
		{
			name:  "seeded",
			hosts: []string{"host1", " ", "host4"},
			peers: []peer.Peer{{Host: "host1"}, {Host: "host2"}},
			total: 3,
		},
	}

	t.Log("Given the need to maintain the set of known peers.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen handling a %q set of peers.", testID, tst.name)
				{
					ps := peer.NewPeerSet(tst.hosts...)

					for _, p := range tst.peers {
						ps.Add(p)
					}

					if ps.Add(tst.peers[0]) {
						t.Fatalf("\t%s\tTest %d:\tShould not add a duplicate peer.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould not add a duplicate peer.", success, testID)

					peers := ps.Copy("")
					if len(peers) != tst.total || ps.Len() != tst.total {
						t.Fatalf("\t%s\tTest %d:\tShould get back the right peers, got %d, exp %d.", failed, testID, len(peers), tst.total)
					}
					t.Logf("\t%s\tTest %d:\tShould get back the right peers.", success, testID)

					if peers = ps.Copy("host2"); len(peers) != tst.total-1 {
						t.Fatalf("\t%s\tTest %d:\tShould exclude this node, got %d, exp %d.", failed, testID, len(peers), tst.total-1)
					}
					t.Logf("\t%s\tTest %d:\tShould exclude this node.", success, testID)

					ps.Remove(peer.New("host1"))
					if ps.Len() != tst.total-1 {
						t.Fatalf("\t%s\tTest %d:\tShould be able to remove a peer.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to remove a peer.", success, testID)
				}
			}

			t.Run(tst.name, f)
		}
	}
}
