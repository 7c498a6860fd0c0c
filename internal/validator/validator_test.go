package validator

import "testing"

func TestParseJobNumber(t *testing.T) {
	tests := map[string]struct {
		input   string
		wantErr bool
		want    int
	}{
		"valid":     {input: "3", want: 3},
		"zero":      {input: "0", wantErr: true},
		"negative":  {input: "-1", wantErr: true},
		"not a num": {input: "abc", wantErr: true},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			v := New()
			got := v.ParseJobNumber(test.input)
			if test.wantErr {
				if v.Err() == nil {
					t.Fatal("expected error, got none")
				}
				return
			}
			if v.Err() != nil {
				t.Fatalf("unexpected error: %v", v.Err())
			}
			if got != test.want {
				t.Fatalf("unexpected value; actual: %d, expected: %d", got, test.want)
			}
		})
	}
}

func TestAssertArgCount(t *testing.T) {
	v := New()
	v.AssertArgCount([]string{"1"}, 1, "expected exactly 1 argument")
	if v.Err() != nil {
		t.Fatalf("unexpected error: %v", v.Err())
	}

	v = New()
	v.AssertArgCount([]string{}, 1, "expected exactly 1 argument")
	if v.Err() == nil {
		t.Fatal("expected error for wrong argument count")
	}
}

func TestAssertFirstFailureWins(t *testing.T) {
	v := New()
	v.Assert(false, "first")
	v.Assert(false, "second")
	if v.Err().Error() != NewErrInvalidInput("first").Error() {
		t.Fatalf("unexpected error: %v", v.Err())
	}
}
