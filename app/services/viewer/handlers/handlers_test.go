package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/btnlabs/blockchain/app/services/viewer/handlers"
	"go.uber.org/zap"
)

func Test_Index(t *testing.T) {
	app, err := handlers.UIMux("test", "localhost:8080", make(chan os.Signal, 1), zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("Should be able to construct the ui : %s", err)
	}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	app.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("Should get a 200 for the index page : %d", w.Code)
	}

	body := w.Body.String()
	if !strings.Contains(body, "localhost:8080") || !strings.Contains(body, "/v1/events") {
		t.Fatalf("Should render the node host into the page : %s", body)
	}
}
