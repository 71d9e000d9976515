package tree

import (
	"slices"

	"github.com/google/uuid"

	"github.com/matzehuels/famtree/pkg/errors"
)

// AddFamily creates an empty family and returns its id.
func (s *Store) AddFamily(name string, color RGB) (id uuid.UUID, err error) {
	defer s.observe("add_family", &err)

	f := Family{Name: name, Color: color}
	if err := errors.ValidateStruct(f); err != nil {
		return uuid.Nil, err
	}
	f.ID = s.allocID(func(id uuid.UUID) bool { return s.familyIndex(id) >= 0 })
	s.families = append(s.families, &f)
	return f.ID, nil
}

// UpdateFamily renames and recolors a family.
func (s *Store) UpdateFamily(id uuid.UUID, name string, color RGB) (err error) {
	defer s.observe("update_family", &err)

	f, err := s.family(id)
	if err != nil {
		return err
	}
	if err := errors.ValidateStruct(Family{Name: name}); err != nil {
		return err
	}
	f.Name = name
	f.Color = color
	return nil
}

// RemoveFamily deletes a family. Its members are not affected.
func (s *Store) RemoveFamily(id uuid.UUID) (err error) {
	defer s.observe("remove_family", &err)

	i := s.familyIndex(id)
	if i < 0 {
		return errFamilyNotFound(id)
	}
	s.families = slices.Delete(s.families, i, i+1)
	return nil
}

// AddFamilyMember adds person to a family.
func (s *Store) AddFamilyMember(family, person uuid.UUID) (err error) {
	defer s.observe("add_family_member", &err)

	f, err := s.family(family)
	if err != nil {
		return err
	}
	if err := s.requirePersons(person); err != nil {
		return err
	}
	if f.Has(person) {
		return errors.New(errors.ErrCodeDuplicateMember, "%s is already a member of %q", person, f.Name)
	}
	f.Members = append(f.Members, person)
	return nil
}

// RemoveFamilyMember removes person from a family.
func (s *Store) RemoveFamilyMember(family, person uuid.UUID) (err error) {
	defer s.observe("remove_family_member", &err)

	f, err := s.family(family)
	if err != nil {
		return err
	}
	if !f.Has(person) {
		return errPersonNotFound(person)
	}
	f.Members = slices.DeleteFunc(f.Members, func(m uuid.UUID) bool { return m == person })
	return nil
}

// Family returns a copy of the family with the given id.
func (s *Store) Family(id uuid.UUID) (Family, bool) {
	i := s.familyIndex(id)
	if i < 0 {
		return Family{}, false
	}
	return cloneFamily(s.families[i]), true
}

// Families returns copies of all families in creation order.
func (s *Store) Families() []Family {
	out := make([]Family, len(s.families))
	for i, f := range s.families {
		out[i] = cloneFamily(f)
	}
	return out
}

// FamiliesOf returns the families person belongs to, in creation order.
func (s *Store) FamiliesOf(person uuid.UUID) []Family {
	var out []Family
	for _, f := range s.families {
		if f.Has(person) {
			out = append(out, cloneFamily(f))
		}
	}
	return out
}

func (s *Store) family(id uuid.UUID) (*Family, error) {
	i := s.familyIndex(id)
	if i < 0 {
		return nil, errFamilyNotFound(id)
	}
	return s.families[i], nil
}

func (s *Store) familyIndex(id uuid.UUID) int {
	return slices.IndexFunc(s.families, func(f *Family) bool { return f.ID == id })
}

func cloneFamily(f *Family) Family {
	c := *f
	c.Members = slices.Clone(f.Members)
	return c
}

func errFamilyNotFound(id uuid.UUID) error {
	return errors.New(errors.ErrCodeFamilyNotFound, "family %s not found", id)
}
