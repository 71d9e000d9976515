package cli

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/matzehuels/famtree/pkg/layout"
	"github.com/matzehuels/famtree/pkg/render/svg"
	"github.com/matzehuels/famtree/pkg/tree"
)

func (c *CLI) personCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "person",
		Aliases: []string{"p"},
		Short:   "Add, edit and inspect persons",
	}
	cmd.AddCommand(c.personAddCommand())
	cmd.AddCommand(c.personUpdateCommand())
	cmd.AddCommand(c.personRemoveCommand())
	cmd.AddCommand(c.personListCommand())
	cmd.AddCommand(c.personShowCommand())
	return cmd
}

// personFlags are the editable fields shared by add and update.
type personFlags struct {
	name     string
	gender   string
	birth    string
	death    string
	deceased bool
	memo     string

	photo      string
	display    string
	photoScale float64
}

func (f *personFlags) register(cmd *cobra.Command, withName bool) {
	if withName {
		cmd.Flags().StringVar(&f.name, "name", "", "display name")
	}
	cmd.Flags().StringVarP(&f.gender, "gender", "g", "", "male, female or unknown")
	cmd.Flags().StringVar(&f.birth, "birth", "", "birth date, e.g. 1950-04-01")
	cmd.Flags().StringVar(&f.death, "death", "", "death date (implies --deceased)")
	cmd.Flags().BoolVar(&f.deceased, "deceased", false, "mark as deceased")
	cmd.Flags().StringVar(&f.memo, "memo", "", "free-form note")
	cmd.Flags().StringVar(&f.photo, "photo", "", "photo file, relative to the tree file (implies --display photo)")
	cmd.Flags().StringVar(&f.display, "display", "", "node content: name or photo")
	cmd.Flags().Float64Var(&f.photoScale, "photo-scale", 1, "photo height multiplier")
	_ = cmd.RegisterFlagCompletionFunc("gender", cobra.FixedCompletions(
		[]string{"male", "female", "unknown"}, cobra.ShellCompDirectiveNoFileComp))
	_ = cmd.RegisterFlagCompletionFunc("display", cobra.FixedCompletions(
		[]string{"name", "photo"}, cobra.ShellCompDirectiveNoFileComp))
}

// apply copies the flags the user set onto p.
func (f *personFlags) apply(cmd *cobra.Command, p *tree.Person) {
	changed := cmd.Flags().Changed
	if changed("name") {
		p.Name = f.name
	}
	if changed("gender") {
		p.Gender = tree.ParseGender(f.gender)
	}
	if changed("birth") {
		p.Birth = f.birth
	}
	if changed("death") {
		p.Death = f.death
	}
	if changed("deceased") {
		p.Deceased = f.deceased
	}
	if changed("memo") {
		p.Memo = f.memo
	}
	if changed("photo") {
		p.PhotoPath = f.photo
		if f.photo != "" && !changed("display") {
			p.Display = tree.DisplayNameAndPhoto
		}
	}
	if changed("display") {
		p.Display = tree.ParseDisplayMode(f.display)
	}
	if changed("photo-scale") {
		p.PhotoScale = f.photoScale
	}
}

func (c *CLI) personAddCommand() *cobra.Command {
	var (
		flags   personFlags
		parents []string
		kind    string
		spouse  string
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a person",
		Example: `  famtree person add "Sato Taro" --gender male --birth 1950-04-01
  famtree person add "Sato Ken" --parent "Sato Taro" --parent "Sato Hana"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := tree.Person{Name: args[0]}
			flags.apply(cmd, &p)

			var id uuid.UUID
			err := c.mutate(cmd.Context(), func(s *tree.Store) error {
				parentIDs, err := resolvePersons(s, parents)
				if err != nil {
					return err
				}
				var spouseID uuid.UUID
				if spouse != "" {
					if spouseID, err = resolvePerson(s, spouse); err != nil {
						return err
					}
				}
				if id, err = s.AddPerson(p); err != nil {
					return err
				}
				rollback := func(err error) error {
					_ = s.RemovePerson(id)
					return err
				}
				for _, parent := range parentIDs {
					if err := s.AddParentChild(parent, id, tree.ParseEdgeKind(kind)); err != nil {
						return rollback(err)
					}
				}
				if spouseID != uuid.Nil {
					if err := s.AddSpouse(id, spouseID, ""); err != nil {
						return rollback(err)
					}
				}
				return nil
			})
			if err != nil {
				return err
			}
			printSuccess("Added %s", StyleHighlight.Render(p.Name))
			printDetail("id %s", id)
			return nil
		},
	}

	flags.register(cmd, false)
	cmd.Flags().StringArrayVar(&parents, "parent", nil, "parent (repeatable)")
	cmd.Flags().StringVar(&kind, "kind", "biological", "relation to --parent: biological, adoptive or other")
	cmd.Flags().StringVar(&spouse, "spouse", "", "spouse")
	_ = cmd.RegisterFlagCompletionFunc("parent", c.completePersons)
	_ = cmd.RegisterFlagCompletionFunc("spouse", c.completePersons)
	return cmd
}

func (c *CLI) personUpdateCommand() *cobra.Command {
	var flags personFlags

	cmd := &cobra.Command{
		Use:               "update <person>",
		Short:             "Change a person's fields",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completePersons,
		RunE: func(cmd *cobra.Command, args []string) error {
			var name string
			err := c.mutate(cmd.Context(), func(s *tree.Store) error {
				id, err := resolvePerson(s, args[0])
				if err != nil {
					return err
				}
				p, _ := s.Person(id)
				flags.apply(cmd, &p)
				name = p.Name
				return s.UpdatePerson(p)
			})
			if err != nil {
				return err
			}
			printSuccess("Updated %s", StyleHighlight.Render(name))
			return nil
		},
	}

	flags.register(cmd, true)
	return cmd
}

func (c *CLI) personRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "rm <person>",
		Aliases:           []string{"remove"},
		Short:             "Remove a person and every relation that involves them",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completePersons,
		RunE: func(cmd *cobra.Command, args []string) error {
			var name string
			err := c.mutate(cmd.Context(), func(s *tree.Store) error {
				id, err := resolvePerson(s, args[0])
				if err != nil {
					return err
				}
				p, _ := s.Person(id)
				name = p.Name
				return s.RemovePerson(id)
			})
			if err != nil {
				return err
			}
			printSuccess("Removed %s", StyleHighlight.Render(name))
			return nil
		},
	}
}

func (c *CLI) personListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list [query]",
		Aliases: []string{"ls"},
		Short:   "List persons, optionally filtered by name or id prefix",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.read(cmd.Context(), func(s *tree.Store) error {
				persons := s.Persons()
				if len(args) == 1 {
					persons = filterPersons(persons, args[0])
				}
				gens, _ := layout.Generations(s)
				printTable([]string{"ID", "Name", "Gender", "Birth", "Death", "Gen"}, personRows(persons, gens))
				return nil
			})
		},
	}
}

// filterPersons keeps persons whose name contains query or whose id
// starts with it, ignoring case.
func filterPersons(persons []tree.Person, query string) []tree.Person {
	q := strings.ToLower(strings.TrimSpace(query))
	var out []tree.Person
	for _, p := range persons {
		if strings.Contains(strings.ToLower(p.Name), q) || strings.HasPrefix(p.ID.String(), q) {
			out = append(out, p)
		}
	}
	return out
}

func personRows(persons []tree.Person, gens map[uuid.UUID]int) [][]string {
	rows := make([][]string, 0, len(persons))
	for _, p := range persons {
		death := p.Death
		if death == "" && p.Deceased {
			death = "†"
		}
		rows = append(rows, []string{
			shortID(p.ID), p.Name, p.Gender.String(), p.Birth, death, itoa(gens[p.ID]),
		})
	}
	return rows
}

func (c *CLI) personShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "show <person>",
		Short:             "Show a person with their relatives, families and events",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: c.completePersons,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.read(cmd.Context(), func(s *tree.Store) error {
				id, err := resolvePerson(s, args[0])
				if err != nil {
					return err
				}
				p, _ := s.Person(id)
				c.printPerson(s, p)
				return nil
			})
		},
	}
}

func (c *CLI) printPerson(s *tree.Store, p tree.Person) {
	printKeyValue("ID", p.ID.String())
	for _, line := range strings.Split(svg.PersonTooltip(p, c.Settings.Language, currentYear()), "\n") {
		key, value, _ := strings.Cut(line, ": ")
		printKeyValue(key, value)
	}
	printKeyValue("Gender", p.Gender.String())
	printKeyValue("Position", formatPoint(p.Position)+" ("+p.Pin.String()+")")
	if p.PhotoPath != "" {
		printKeyValue("Photo", fmt.Sprintf("%s (%s, x%g)", p.PhotoPath, p.Display, p.Scale()))
	}

	names := func(ids []uuid.UUID) string {
		out := make([]string, 0, len(ids))
		for _, id := range ids {
			if q, ok := s.Person(id); ok {
				out = append(out, q.Name)
			}
		}
		return strings.Join(out, ", ")
	}
	printKeyValue("Parents", names(s.ParentsOf(p.ID)))
	printKeyValue("Children", names(s.ChildrenOf(p.ID)))
	printKeyValue("Spouses", names(s.SpousesOf(p.ID)))

	var fams []string
	for _, f := range s.FamiliesOf(p.ID) {
		fams = append(fams, f.Name)
	}
	printKeyValue("Families", strings.Join(fams, ", "))

	var events []string
	for _, l := range s.EventLinks() {
		if l.Person != p.ID {
			continue
		}
		if ev, ok := s.Event(l.Event); ok {
			events = append(events, ev.Name)
		}
	}
	printKeyValue("Events", strings.Join(events, ", "))
}
