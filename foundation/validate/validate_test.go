package validate_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/btnlabs/blockchain/foundation/validate"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

type model struct {
	Name  string `json:"name" validate:"required"`
	Owner string `json:"owner" validate:"required"`
	Kind  string `json:"kind" validate:"omitempty,oneof=function event"`
}

func Test_Check(t *testing.T) {
	t.Log("Given the need to validate models.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen handling a valid model.", testID)
		{
			if err := validate.Check(model{Name: "Token", Owner: "alice"}); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould pass validation: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould pass validation.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen handling an invalid model.", testID)
		{
			err := validate.Check(model{Kind: "struct"})
			if !validate.IsFieldErrors(err) {
				t.Fatalf("\t%s\tTest %d:\tShould get field errors: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould get field errors.", success, testID)

			fields := validate.GetFieldErrors(fmt.Errorf("wrapped: %w", err)).Fields()
			for _, name := range []string{"name", "owner", "kind"} {
				if _, exists := fields[name]; !exists {
					t.Fatalf("\t%s\tTest %d:\tShould name the %q field using its json tag: %v", failed, testID, name, fields)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould name the fields using their json tags.", success, testID)

			if validate.IsFieldErrors(errors.New("other")) {
				t.Fatalf("\t%s\tTest %d:\tShould not treat other errors as field errors.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould not treat other errors as field errors.", success, testID)
		}
	}
}
