package pid

import "testing"

func TestProfileGains(t *testing.T) {
	cases := []struct {
		profile Profile
		want    Gains
	}{
		{ProfileDisturbanceRejection, Gains{Kp: 0.80, Ki: 0.01, Kd: 0.55}},
		{ProfilePathPlanning, Gains{Kp: 0.8, Ki: 0.1, Kd: 1.2}},
	}
	for _, tc := range cases {
		t.Run(tc.profile.String(), func(t *testing.T) {
			if got := tc.profile.Gains(); got != tc.want {
				t.Errorf("Gains() = %+v, want %+v", got, tc.want)
			}
			if got := New(tc.profile).Gains(); got != tc.want {
				t.Errorf("New(%v).Gains() = %+v, want %+v", tc.profile, got, tc.want)
			}
		})
	}
}

func TestParseProfile(t *testing.T) {
	for _, name := range ProfileNames() {
		p, err := ParseProfile(name)
		if err != nil {
			t.Errorf("ParseProfile(%q): %v", name, err)
			continue
		}
		if p.String() != name {
			t.Errorf("ParseProfile(%q).String() = %q", name, p.String())
		}
	}
}

func TestParseProfile_Unknown(t *testing.T) {
	if _, err := ParseProfile("aggressive"); err == nil {
		t.Error("expected error for unknown profile")
	}
}

func TestProfileNames_Sorted(t *testing.T) {
	names := ProfileNames()
	want := []string{"disturbance_rejection", "path_planning"}
	if len(names) != len(want) {
		t.Fatalf("ProfileNames() = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("ProfileNames()[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestProfile_StringUnknown(t *testing.T) {
	if got := Profile(99).String(); got != "Profile(99)" {
		t.Errorf("String() = %q", got)
	}
}
