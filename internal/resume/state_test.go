package resume

import "testing"

func TestParseState(t *testing.T) {
	cases := []struct {
		in   string
		want State
		ok   bool
	}{
		{"APPLY", StateApply, true},
		{"apply", StateApply, true},
		{" pass ", StatePass, true},
		{"Interview1", StateInterview1, true},
		{"interview2", StateInterview2, true},
		{"final_pass", StateFinalPass, true},
		{"drop", StateDrop, true},
		{"", "", false},
		{"HIRED", "", false},
		{"FINAL PASS", "", false},
	}

	for _, tc := range cases {
		got, ok := ParseState(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Errorf("ParseState(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestParseRole(t *testing.T) {
	cases := []struct {
		in   string
		want Role
		ok   bool
	}{
		{"APPLICANT", RoleApplicant, true},
		{"recruiter", RoleRecruiter, true},
		{" Recruiter ", RoleRecruiter, true},
		{"admin", "", false},
		{"", "", false},
	}

	for _, tc := range cases {
		got, ok := ParseRole(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Errorf("ParseRole(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestNormalizeSort(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"asc", SortAsc},
		{"ASC", SortAsc},
		{"desc", SortDesc},
		{"", SortDesc},
		{"newest", SortDesc},
	}

	for _, tc := range cases {
		if got := NormalizeSort(tc.in); got != tc.want {
			t.Errorf("NormalizeSort(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
