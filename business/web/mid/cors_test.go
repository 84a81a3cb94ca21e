package mid_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/btnlabs/blockchain/business/web/mid"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Cors(t *testing.T) {
	type table struct {
		name      string
		origins   []string
		method    string
		origin    string
		preflight bool
		expOrigin string
		expCalled bool
		expStatus int
	}

	tt := []table{
		{name: "any", origins: []string{"*"}, method: http.MethodGet, origin: "http://wallet.local", expOrigin: "*", expCalled: true, expStatus: http.StatusOK},
		{name: "listed", origins: []string{"http://wallet.local"}, method: http.MethodPost, origin: "http://wallet.local", expOrigin: "http://wallet.local", expCalled: true, expStatus: http.StatusOK},
		{name: "unlisted", origins: []string{"http://wallet.local"}, method: http.MethodGet, origin: "http://other.local", expCalled: true, expStatus: http.StatusOK},
		{name: "preflight", origins: []string{"*"}, method: http.MethodOptions, origin: "http://wallet.local", preflight: true, expOrigin: "*", expStatus: http.StatusNoContent},
	}

	t.Log("Given the need to allow browsers to call the node from other origins.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen handling a %q request.", testID, tst.name)
				{
					var called bool
					handler := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
						called = true
						w.WriteHeader(http.StatusOK)
						return nil
					}

					r := httptest.NewRequest(tst.method, "/v1/status", nil)
					r.Header.Set("Origin", tst.origin)
					if tst.preflight {
						r.Header.Set("Access-Control-Request-Method", http.MethodPost)
					}
					w := httptest.NewRecorder()

					if err := mid.Cors(tst.origins...)(handler)(context.Background(), w, r); err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould handle the request: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould handle the request.", success, testID)

					if got := w.Header().Get("Access-Control-Allow-Origin"); got != tst.expOrigin {
						t.Fatalf("\t%s\tTest %d:\tShould allow origin %q, got %q.", failed, testID, tst.expOrigin, got)
					}
					t.Logf("\t%s\tTest %d:\tShould set the allowed origin.", success, testID)

					if called != tst.expCalled || w.Code != tst.expStatus {
						t.Fatalf("\t%s\tTest %d:\tShould reach the handler %v with status %d, got %v %d.", failed, testID, tst.expCalled, tst.expStatus, called, w.Code)
					}
					t.Logf("\t%s\tTest %d:\tShould answer with status %d.", success, testID, tst.expStatus)

					if tst.preflight && w.Header().Get("Access-Control-Allow-Methods") == "" {
						t.Fatalf("\t%s\tTest %d:\tShould list the allowed methods.", failed, testID)
					}
				}
			}

			t.Run(tst.name, f)
		}
	}
}
