package conversation

import (
	"errors"
	"reflect"
	"testing"
)

func members(n int) []Member {
	out := make([]Member, n)
	for i := range out {
		id := string(rune('a' + i))
		out[i] = Member{UserID: "user-" + id, Username: id, DisplayName: "Player " + id}
	}
	return out
}

func TestAssignRoles_SingleHumanFourSeats(t *testing.T) {
	got, err := AssignRoles(members(1), 4, CanonicalRoles, 20)
	if err != nil {
		t.Fatalf("AssignRoles() error = %v", err)
	}

	if len(got.Participants) != 4 {
		t.Fatalf("participants = %d, want 4", len(got.Participants))
	}
	if p := got.Participants[0]; p.Role != RoleA || p.IsAI || p.UserID != "user-a" {
		t.Errorf("participant A = %+v, want human user-a", p)
	}
	for _, p := range got.Participants[1:] {
		if !p.IsAI || p.UserID != "" {
			t.Errorf("participant %s = %+v, want AI without identity", p.Role, p)
		}
	}

	var turnsForA []int
	for i, role := range got.Plan {
		if role == RoleA {
			turnsForA = append(turnsForA, i+1)
		}
	}
	if want := []int{1, 5, 9, 13, 17}; !reflect.DeepEqual(turnsForA, want) {
		t.Errorf("turns for A = %v, want %v", turnsForA, want)
	}
	if got.Plan[1] != RoleB {
		t.Errorf("turn 2 speaker = %s, want B", got.Plan[1])
	}
}

func TestAssignRoles_JoinOrder(t *testing.T) {
	got, err := AssignRoles(members(3), 3, CanonicalRoles, 20)
	if err != nil {
		t.Fatalf("AssignRoles() error = %v", err)
	}
	want := []Role{RoleA, RoleB, RoleC}
	for i, p := range got.Participants {
		if p.Role != want[i] || p.IsAI {
			t.Errorf("participant %d = %+v, want human %s", i, p, want[i])
		}
		if p.UserID != members(3)[i].UserID {
			t.Errorf("participant %d user = %s, want %s", i, p.UserID, members(3)[i].UserID)
		}
	}
}

func TestAssignRoles_RemainderFavoursEarlierRoles(t *testing.T) {
	got, err := AssignRoles(members(3), 3, CanonicalRoles, 20)
	if err != nil {
		t.Fatalf("AssignRoles() error = %v", err)
	}
	counts := map[Role]int{}
	for _, r := range got.Plan {
		counts[r]++
	}
	if counts[RoleA] != 7 || counts[RoleB] != 7 || counts[RoleC] != 6 {
		t.Errorf("counts = %v, want A:7 B:7 C:6", counts)
	}
	if got.Plan[19] != RoleB {
		t.Errorf("turn 20 speaker = %s, want B", got.Plan[19])
	}
}

func TestAssignRoles_Errors(t *testing.T) {
	tests := []struct {
		name       string
		members    int
		maxParty   int
		totalTurns int
		want       error
	}{
		{"no members", 0, 2, 20, ErrEmptyRoom},
		{"more members than seats", 3, 2, 20, ErrInvalidPartySize},
		{"party larger than role set", 1, 5, 20, ErrInvalidPartySize},
		{"zero party", 1, 0, 20, ErrInvalidPartySize},
		{"no turns", 1, 2, 0, ErrInvalidPartySize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := AssignRoles(members(tt.members), tt.maxParty, CanonicalRoles, tt.totalTurns)
			if !errors.Is(err, tt.want) {
				t.Errorf("AssignRoles() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestAssignRoles_Deterministic(t *testing.T) {
	first, _ := AssignRoles(members(2), 4, CanonicalRoles, 20)
	second, _ := AssignRoles(members(2), 4, CanonicalRoles, 20)
	if !reflect.DeepEqual(first, second) {
		t.Error("AssignRoles() is not deterministic for identical input")
	}
}
