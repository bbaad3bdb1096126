package domain

import "testing"

func TestCanMutate(t *testing.T) {
	resource := &Resource{ID: "r1", OwnerID: "owner"}

	tests := []struct {
		name  string
		actor *Actor
		want  bool
	}{
		{name: "owner", actor: &Actor{ID: "owner", Role: RoleUser}, want: true},
		{name: "admin", actor: &Actor{ID: "someone", Role: RoleAdmin}, want: true},
		{name: "superadmin", actor: &Actor{ID: "someone", Role: RoleSuperAdmin}, want: true},
		{name: "other user", actor: &Actor{ID: "someone", Role: RoleUser}, want: false},
		{name: "unknown role", actor: &Actor{ID: "someone", Role: "editor"}, want: false},
		{name: "nil actor", actor: nil, want: false},
		{name: "anonymous admin", actor: &Actor{Role: RoleAdmin}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanMutate(tt.actor, resource); got != tt.want {
				t.Errorf("CanMutate() = %v, want %v", got, tt.want)
			}
		})
	}
}
