package model

import "testing"

func TestLookupRole(t *testing.T) {
	tests := []struct {
		in   string
		want Role
		ok   bool
	}{
		{"staff", RoleStaff, true},
		{" Secretary ", RoleSecretary, true},
		{"HOD", RoleHOD, true},
		{"admin", RoleAdmin, true},
		{"other", RoleOther, true},
		{"dean", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := LookupRole(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("LookupRole(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
	if ParseRole("dean") != RoleOther {
		t.Errorf("ParseRole keeps mapping unknown names to other")
	}
}
