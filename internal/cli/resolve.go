package cli

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/matzehuels/famtree/pkg/errors"
	"github.com/matzehuels/famtree/pkg/tree"
)

// Command-line arguments name persons, events and families by full id,
// unique id prefix or unique name.

func resolvePerson(s *tree.Store, arg string) (uuid.UUID, error) {
	matches := s.FindPersons(arg)
	switch len(matches) {
	case 0:
		return uuid.Nil, errors.New(errors.ErrCodePersonNotFound, "no person matches %q", arg)
	case 1:
		return matches[0].ID, nil
	}
	names := make([]string, len(matches))
	for i, p := range matches {
		names[i] = fmt.Sprintf("%s (%s)", p.Name, shortID(p.ID))
	}
	return uuid.Nil, errors.New(errors.ErrCodeInvalidInput, "%q is ambiguous: %s", arg, strings.Join(names, ", "))
}

func resolvePersons(s *tree.Store, args []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(args))
	for _, arg := range args {
		id, err := resolvePerson(s, arg)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func resolveEvent(s *tree.Store, arg string) (uuid.UUID, error) {
	var ids []uuid.UUID
	for _, ev := range s.Events() {
		if matchesArg(ev.ID, ev.Name, arg) {
			ids = append(ids, ev.ID)
		}
	}
	return pick(ids, arg, "event", errors.ErrCodeEventNotFound)
}

func resolveFamily(s *tree.Store, arg string) (uuid.UUID, error) {
	var ids []uuid.UUID
	for _, f := range s.Families() {
		if matchesArg(f.ID, f.Name, arg) {
			ids = append(ids, f.ID)
		}
	}
	return pick(ids, arg, "family", errors.ErrCodeFamilyNotFound)
}

// resolveNode accepts "person:<arg>", "event:<arg>" or a bare argument,
// which is tried as a person first and then as an event.
func resolveNode(s *tree.Store, arg string) (tree.NodeRef, error) {
	if kind, rest, ok := strings.Cut(arg, ":"); ok {
		if k, ok := tree.ParseNodeKind(kind); ok {
			if k == tree.NodeEvent {
				id, err := resolveEvent(s, rest)
				return tree.EventRef(id), err
			}
			id, err := resolvePerson(s, rest)
			return tree.PersonRef(id), err
		}
	}
	id, err := resolvePerson(s, arg)
	if err == nil {
		return tree.PersonRef(id), nil
	}
	if !errors.Is(err, errors.ErrCodePersonNotFound) {
		return tree.NodeRef{}, err
	}
	if id, eerr := resolveEvent(s, arg); eerr == nil {
		return tree.EventRef(id), nil
	}
	return tree.NodeRef{}, errors.New(errors.ErrCodeInvalidInput, "no person or event matches %q", arg)
}

func matchesArg(id uuid.UUID, name, arg string) bool {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return false
	}
	if full, err := uuid.Parse(arg); err == nil {
		return full == id
	}
	return strings.HasPrefix(id.String(), strings.ToLower(arg)) || strings.EqualFold(name, arg)
}

func pick(ids []uuid.UUID, arg, what string, notFound errors.Code) (uuid.UUID, error) {
	switch len(ids) {
	case 0:
		return uuid.Nil, errors.New(notFound, "no %s matches %q", what, arg)
	case 1:
		return ids[0], nil
	}
	return uuid.Nil, errors.New(errors.ErrCodeInvalidInput, "%q matches %d %s records", arg, len(ids), what)
}

// shortID is the first block of an id, enough to address it on the
// command line in most trees.
func shortID(id uuid.UUID) string {
	return id.String()[:8]
}
