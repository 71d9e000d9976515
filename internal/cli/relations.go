package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/famtree/pkg/tree"
)

// =============================================================================
// Parent-child edges
// =============================================================================

func (c *CLI) parentCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parent",
		Short: "Link and unlink parents and children",
	}
	cmd.AddCommand(c.parentAddCommand())
	cmd.AddCommand(c.parentRemoveCommand())
	return cmd
}

func (c *CLI) parentAddCommand() *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:               "add <parent> <child>",
		Short:             "Record that <parent> is a parent of <child>",
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: c.completePersons,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.pairCommand(cmd, args, func(s *tree.Store, parent, child tree.Person) error {
				return s.AddParentChild(parent.ID, child.ID, tree.ParseEdgeKind(kind))
			}, "%s is now a parent of %s")
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "biological", "biological, adoptive or other")
	_ = cmd.RegisterFlagCompletionFunc("kind", cobra.FixedCompletions(
		[]string{"biological", "adoptive", "other"}, cobra.ShellCompDirectiveNoFileComp))
	return cmd
}

func (c *CLI) parentRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "rm <parent> <child>",
		Aliases:           []string{"remove"},
		Short:             "Remove a parent-child relation",
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: c.completePersons,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.pairCommand(cmd, args, func(s *tree.Store, parent, child tree.Person) error {
				return s.RemoveParentChild(parent.ID, child.ID)
			}, "%s is no longer a parent of %s")
		},
	}
}

// =============================================================================
// Spouses
// =============================================================================

func (c *CLI) spouseCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spouse",
		Short: "Link and unlink spouses",
	}
	cmd.AddCommand(c.spouseAddCommand())
	cmd.AddCommand(c.spouseUpdateCommand())
	cmd.AddCommand(c.spouseRemoveCommand())
	return cmd
}

func (c *CLI) spouseAddCommand() *cobra.Command {
	var memo string

	cmd := &cobra.Command{
		Use:               "add <person> <person>",
		Short:             "Record a marriage or partnership",
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: c.completePersons,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.pairCommand(cmd, args, func(s *tree.Store, a, b tree.Person) error {
				return s.AddSpouse(a.ID, b.ID, memo)
			}, "%s and %s are now spouses")
		},
	}
	cmd.Flags().StringVar(&memo, "memo", "", "note on the relation, e.g. the wedding date")
	return cmd
}

func (c *CLI) spouseUpdateCommand() *cobra.Command {
	var memo string

	cmd := &cobra.Command{
		Use:               "update <person> <person>",
		Short:             "Change the memo of a spouse relation",
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: c.completePersons,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.pairCommand(cmd, args, func(s *tree.Store, a, b tree.Person) error {
				return s.UpdateSpouse(a.ID, b.ID, memo)
			}, "Updated the relation of %s and %s")
		},
	}
	cmd.Flags().StringVar(&memo, "memo", "", "new memo; empty clears it")
	return cmd
}

func (c *CLI) spouseRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "rm <person> <person>",
		Aliases:           []string{"remove"},
		Short:             "Remove a spouse relation",
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: c.completePersons,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.pairCommand(cmd, args, func(s *tree.Store, a, b tree.Person) error {
				return s.RemoveSpouse(a.ID, b.ID)
			}, "%s and %s are no longer spouses")
		},
	}
}

// pairCommand resolves two person arguments, applies fn and saves. done
// formats the two names into the success line.
func (c *CLI) pairCommand(cmd *cobra.Command, args []string, fn func(s *tree.Store, a, b tree.Person) error, done string) error {
	var a, b tree.Person
	err := c.mutate(cmd.Context(), func(s *tree.Store) error {
		ids, err := resolvePersons(s, args)
		if err != nil {
			return err
		}
		a, _ = s.Person(ids[0])
		b, _ = s.Person(ids[1])
		return fn(s, a, b)
	})
	if err != nil {
		return err
	}
	printSuccess(done, StyleHighlight.Render(a.Name), StyleHighlight.Render(b.Name))
	return nil
}
