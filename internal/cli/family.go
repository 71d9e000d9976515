package cli

import (
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/matzehuels/famtree/pkg/errors"
	"github.com/matzehuels/famtree/pkg/tree"
)

func (c *CLI) familyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "family",
		Aliases: []string{"fam"},
		Short:   "Group persons into colored families",
	}
	cmd.AddCommand(c.familyAddCommand())
	cmd.AddCommand(c.familyUpdateCommand())
	cmd.AddCommand(c.familyRemoveCommand())
	cmd.AddCommand(c.familyMemberCommand())
	cmd.AddCommand(c.familyListCommand())
	return cmd
}

// parseColor parses "#rrggbb", falling back to def when s is empty.
func parseColor(s string, def tree.RGB) (tree.RGB, error) {
	if s == "" {
		return def, nil
	}
	rgb, err := tree.ParseRGB(s)
	if err != nil {
		return def, errors.Wrap(errors.ErrCodeInvalidInput, err, "color %q", s)
	}
	return rgb, nil
}

func (c *CLI) familyAddCommand() *cobra.Command {
	var (
		color   string
		members []string
	)

	cmd := &cobra.Command{
		Use:     "add <name>",
		Short:   "Create a family",
		Example: `  famtree family add Sato --color "#6496ff" --member "Sato Taro" --member "Sato Hana"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rgb, err := parseColor(color, tree.DefaultFamilyColor)
			if err != nil {
				return err
			}
			var id uuid.UUID
			err = c.mutate(cmd.Context(), func(s *tree.Store) error {
				ids, err := resolvePersons(s, members)
				if err != nil {
					return err
				}
				if id, err = s.AddFamily(args[0], rgb); err != nil {
					return err
				}
				for _, m := range ids {
					if err := s.AddFamilyMember(id, m); err != nil {
						return err
					}
				}
				return nil
			})
			if err != nil {
				return err
			}
			printSuccess("Created family %s", StyleHighlight.Render(args[0]))
			printDetail("id %s · %d members", id, len(members))
			return nil
		},
	}
	cmd.Flags().StringVar(&color, "color", "", "box color as #rrggbb")
	cmd.Flags().StringArrayVar(&members, "member", nil, "member (repeatable)")
	_ = cmd.RegisterFlagCompletionFunc("member", c.completePersons)
	return cmd
}

func (c *CLI) familyUpdateCommand() *cobra.Command {
	var name, color string

	cmd := &cobra.Command{
		Use:   "update <family>",
		Short: "Rename or recolor a family",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var f tree.Family
			err := c.mutate(cmd.Context(), func(s *tree.Store) error {
				id, err := resolveFamily(s, args[0])
				if err != nil {
					return err
				}
				f, _ = s.Family(id)
				if cmd.Flags().Changed("name") {
					f.Name = name
				}
				if f.Color, err = parseColor(color, f.Color); err != nil {
					return err
				}
				return s.UpdateFamily(id, f.Name, f.Color)
			})
			if err != nil {
				return err
			}
			printSuccess("Updated family %s", StyleHighlight.Render(f.Name))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&color, "color", "", "new color as #rrggbb")
	return cmd
}

func (c *CLI) familyRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <family>",
		Aliases: []string{"remove"},
		Short:   "Delete a family; its members are kept",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := c.mutate(cmd.Context(), func(s *tree.Store) error {
				id, err := resolveFamily(s, args[0])
				if err != nil {
					return err
				}
				return s.RemoveFamily(id)
			})
			if err != nil {
				return err
			}
			printSuccess("Removed family %s", args[0])
			return nil
		},
	}
}

func (c *CLI) familyMemberCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "member",
		Short: "Add and remove family members",
	}

	edit := func(use, short, done string, fn func(s *tree.Store, family, person uuid.UUID) error) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <family> <person>",
			Short: short,
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				err := c.mutate(cmd.Context(), func(s *tree.Store) error {
					fid, err := resolveFamily(s, args[0])
					if err != nil {
						return err
					}
					pid, err := resolvePerson(s, args[1])
					if err != nil {
						return err
					}
					return fn(s, fid, pid)
				})
				if err != nil {
					return err
				}
				printSuccess(done, args[1], args[0])
				return nil
			},
		}
	}

	cmd.AddCommand(edit("add", "Add a person to a family", "Added %s to %s",
		func(s *tree.Store, f, p uuid.UUID) error { return s.AddFamilyMember(f, p) }))
	cmd.AddCommand(edit("rm", "Remove a person from a family", "Removed %s from %s",
		func(s *tree.Store, f, p uuid.UUID) error { return s.RemoveFamilyMember(f, p) }))
	return cmd
}

func (c *CLI) familyListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List families with their members",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.read(cmd.Context(), func(s *tree.Store) error {
				var rows [][]string
				for _, f := range s.Families() {
					names := make([]string, 0, len(f.Members))
					for _, m := range f.Members {
						if p, ok := s.Person(m); ok {
							names = append(names, p.Name)
						}
					}
					rows = append(rows, []string{shortID(f.ID), f.Name, f.Color.Hex(), strings.Join(names, ", ")})
				}
				printTable([]string{"ID", "Name", "Color", "Members"}, rows)
				return nil
			})
		},
	}
}
