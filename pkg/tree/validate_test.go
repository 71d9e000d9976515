package tree

import (
	"testing"

	"github.com/google/uuid"

	"github.com/matzehuels/famtree/pkg/errors"
)

func TestAddParentChildValidation(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, s *Store, ids []uuid.UUID)
		edge  func(ids []uuid.UUID) (uuid.UUID, uuid.UUID, EdgeKind)
		want  errors.Code
	}{
		{
			name: "accept",
			edge: func(ids []uuid.UUID) (uuid.UUID, uuid.UUID, EdgeKind) { return ids[0], ids[1], KindBiological },
		},
		{
			name: "self parent",
			edge: func(ids []uuid.UUID) (uuid.UUID, uuid.UUID, EdgeKind) { return ids[0], ids[0], KindBiological },
			want: errors.ErrCodeSelfParent,
		},
		{
			name:  "direct cycle",
			setup: func(t *testing.T, s *Store, ids []uuid.UUID) { mustEdge(t, s, ids[0], ids[1]) },
			edge:  func(ids []uuid.UUID) (uuid.UUID, uuid.UUID, EdgeKind) { return ids[1], ids[0], KindBiological },
			want:  errors.ErrCodeCycle,
		},
		{
			name: "indirect cycle through several generations",
			setup: func(t *testing.T, s *Store, ids []uuid.UUID) {
				mustEdge(t, s, ids[0], ids[1])
				mustEdge(t, s, ids[1], ids[2])
				mustEdge(t, s, ids[2], ids[3])
			},
			edge: func(ids []uuid.UUID) (uuid.UUID, uuid.UUID, EdgeKind) { return ids[3], ids[0], KindAdoptive },
			want: errors.ErrCodeCycle,
		},
		{
			name: "cycle through a second parent",
			setup: func(t *testing.T, s *Store, ids []uuid.UUID) {
				mustEdge(t, s, ids[0], ids[2])
				mustEdge(t, s, ids[1], ids[2])
				mustEdge(t, s, ids[2], ids[3])
			},
			edge: func(ids []uuid.UUID) (uuid.UUID, uuid.UUID, EdgeKind) { return ids[3], ids[1], KindOther },
			want: errors.ErrCodeCycle,
		},
		{
			name:  "duplicate edge",
			setup: func(t *testing.T, s *Store, ids []uuid.UUID) { mustEdge(t, s, ids[0], ids[1]) },
			edge:  func(ids []uuid.UUID) (uuid.UUID, uuid.UUID, EdgeKind) { return ids[0], ids[1], KindBiological },
			want:  errors.ErrCodeDuplicateEdge,
		},
		{
			name:  "same pair different kind",
			setup: func(t *testing.T, s *Store, ids []uuid.UUID) { mustEdge(t, s, ids[0], ids[1]) },
			edge:  func(ids []uuid.UUID) (uuid.UUID, uuid.UUID, EdgeKind) { return ids[0], ids[1], KindAdoptive },
		},
		{
			name: "diamond is not a cycle",
			setup: func(t *testing.T, s *Store, ids []uuid.UUID) {
				mustEdge(t, s, ids[0], ids[1])
				mustEdge(t, s, ids[0], ids[2])
				mustEdge(t, s, ids[1], ids[3])
			},
			edge: func(ids []uuid.UUID) (uuid.UUID, uuid.UUID, EdgeKind) { return ids[2], ids[3], KindBiological },
		},
		{
			name: "unknown child",
			edge: func(ids []uuid.UUID) (uuid.UUID, uuid.UUID, EdgeKind) { return ids[0], uuid.New(), KindBiological },
			want: errors.ErrCodePersonNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore()
			ids := []uuid.UUID{mustAdd(t, s, "A"), mustAdd(t, s, "B"), mustAdd(t, s, "C"), mustAdd(t, s, "D")}
			if tt.setup != nil {
				tt.setup(t, s, ids)
			}
			before := s.ParentChildEdges()

			parent, child, kind := tt.edge(ids)
			err := s.AddParentChild(parent, child, kind)

			if tt.want == "" {
				if err != nil {
					t.Fatalf("AddParentChild() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("AddParentChild() error = %v, want %s", err, tt.want)
			}
			if after := s.ParentChildEdges(); len(after) != len(before) {
				t.Errorf("rejected edge changed the store: %d edges, want %d", len(after), len(before))
			}
		})
	}
}

func TestIsAncestor(t *testing.T) {
	s := newTestStore()
	a := mustAdd(t, s, "A")
	b := mustAdd(t, s, "B")
	c := mustAdd(t, s, "C")
	mustEdge(t, s, a, b)
	mustEdge(t, s, b, c)

	v := s.Validator()
	if !v.IsAncestor(a, c) {
		t.Error("A should be an ancestor of C")
	}
	if v.IsAncestor(c, a) {
		t.Error("C should not be an ancestor of A")
	}
	if v.IsAncestor(a, a) {
		t.Error("a person is not its own ancestor")
	}
}

func TestIsAncestorTerminatesOnCycles(t *testing.T) {
	a, b, c := uuid.UUID{15: 1}, uuid.UUID{15: 2}, uuid.UUID{15: 3}
	s, _ := FromSnapshot(Snapshot{
		Persons: []Person{{ID: a, Name: "A"}, {ID: b, Name: "B"}, {ID: c, Name: "C"}},
		Edges: []ParentChildEdge{
			{Parent: a, Child: b},
			{Parent: b, Child: a},
		},
	})
	if s.Validator().IsAncestor(a, c) {
		t.Error("C is unreachable from the A-B cycle")
	}
	if err := s.AddParentChild(c, a, KindBiological); err != nil {
		t.Errorf("edge into a cyclic component should be checked, not hang: %v", err)
	}
}

func TestAudit(t *testing.T) {
	a, b, c := uuid.UUID{15: 1}, uuid.UUID{15: 2}, uuid.UUID{15: 3}
	s, _ := FromSnapshot(Snapshot{
		Persons: []Person{{ID: a, Name: "A"}, {ID: b, Name: "B"}, {ID: c, Name: "C"}},
		Edges: []ParentChildEdge{
			{Parent: a, Child: b},
			{Parent: b, Child: c},
			{Parent: c, Child: a},
		},
	})

	errs := s.Validator().Audit()
	if len(errs) != 1 || !errors.Is(errs[0], errors.ErrCodeCycle) {
		t.Fatalf("Audit() = %v, want one cycle", errs)
	}
	cycles := s.Validator().Cycles()
	if len(cycles) != 1 || len(cycles[0]) != 3 || cycles[0][0] != a {
		t.Errorf("Cycles() = %v, want [A B C]", cycles)
	}

	clean := newTestStore()
	x := mustAdd(t, clean, "X")
	y := mustAdd(t, clean, "Y")
	mustEdge(t, clean, x, y)
	if errs := clean.Validator().Audit(); len(errs) != 0 {
		t.Errorf("Audit() on a clean store = %v", errs)
	}
}
