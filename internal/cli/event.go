package cli

import (
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/matzehuels/famtree/pkg/tree"
)

func (c *CLI) eventCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "event",
		Aliases: []string{"ev"},
		Short:   "Record events and link them to persons",
	}
	cmd.AddCommand(c.eventAddCommand())
	cmd.AddCommand(c.eventUpdateCommand())
	cmd.AddCommand(c.eventRemoveCommand())
	cmd.AddCommand(c.eventLinkCommand())
	cmd.AddCommand(c.eventUnlinkCommand())
	cmd.AddCommand(c.eventListCommand())
	return cmd
}

var linkStyles = []string{"line", "arrow-to-person", "arrow-from-person"}

func (c *CLI) eventAddCommand() *cobra.Command {
	var (
		date, desc, color string
		persons           []string
		style             string
	)

	cmd := &cobra.Command{
		Use:     "add <name>",
		Short:   "Create an event",
		Example: `  famtree event add "Moved to Osaka" --date 1975 --link "Sato Taro" --style arrow-to-person`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rgb, err := parseColor(color, tree.DefaultEventColor)
			if err != nil {
				return err
			}
			var id uuid.UUID
			err = c.mutate(cmd.Context(), func(s *tree.Store) error {
				ids, err := resolvePersons(s, persons)
				if err != nil {
					return err
				}
				id, err = s.AddEvent(tree.Event{Name: args[0], Date: date, Description: desc, Color: rgb})
				if err != nil {
					return err
				}
				for _, p := range ids {
					if err := s.AddEventLink(tree.EventLink{Event: id, Person: p, Style: tree.ParseLinkStyle(style)}); err != nil {
						return err
					}
				}
				return nil
			})
			if err != nil {
				return err
			}
			printSuccess("Created event %s", StyleHighlight.Render(args[0]))
			printDetail("id %s · %d links", id, len(persons))
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "free-form date")
	cmd.Flags().StringVar(&desc, "desc", "", "description")
	cmd.Flags().StringVar(&color, "color", "", "node color as #rrggbb")
	cmd.Flags().StringArrayVar(&persons, "link", nil, "person to link (repeatable)")
	cmd.Flags().StringVar(&style, "style", "line", "style of --link lines: "+strings.Join(linkStyles, ", "))
	_ = cmd.RegisterFlagCompletionFunc("link", c.completePersons)
	_ = cmd.RegisterFlagCompletionFunc("style", cobra.FixedCompletions(linkStyles, cobra.ShellCompDirectiveNoFileComp))
	return cmd
}

func (c *CLI) eventUpdateCommand() *cobra.Command {
	var name, date, desc, color string

	cmd := &cobra.Command{
		Use:   "update <event>",
		Short: "Change an event's fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			changed := cmd.Flags().Changed
			var ev tree.Event
			err := c.mutate(cmd.Context(), func(s *tree.Store) error {
				id, err := resolveEvent(s, args[0])
				if err != nil {
					return err
				}
				ev, _ = s.Event(id)
				if changed("name") {
					ev.Name = name
				}
				if changed("date") {
					ev.Date = date
				}
				if changed("desc") {
					ev.Description = desc
				}
				if ev.Color, err = parseColor(color, ev.Color); err != nil {
					return err
				}
				return s.UpdateEvent(ev)
			})
			if err != nil {
				return err
			}
			printSuccess("Updated event %s", StyleHighlight.Render(ev.Name))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&date, "date", "", "new date")
	cmd.Flags().StringVar(&desc, "desc", "", "new description")
	cmd.Flags().StringVar(&color, "color", "", "new color as #rrggbb")
	return cmd
}

func (c *CLI) eventRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <event>",
		Aliases: []string{"remove"},
		Short:   "Delete an event and its links",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := c.mutate(cmd.Context(), func(s *tree.Store) error {
				id, err := resolveEvent(s, args[0])
				if err != nil {
					return err
				}
				return s.RemoveEvent(id)
			})
			if err != nil {
				return err
			}
			printSuccess("Removed event %s", args[0])
			return nil
		},
	}
}

func (c *CLI) eventLinkCommand() *cobra.Command {
	var style, memo string

	cmd := &cobra.Command{
		Use:   "link <event> <person>",
		Short: "Link an event to a person, or restyle an existing link",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := c.mutate(cmd.Context(), func(s *tree.Store) error {
				eid, err := resolveEvent(s, args[0])
				if err != nil {
					return err
				}
				pid, err := resolvePerson(s, args[1])
				if err != nil {
					return err
				}
				l := tree.EventLink{Event: eid, Person: pid, Style: tree.ParseLinkStyle(style), Memo: memo}
				for _, existing := range s.LinksOf(eid) {
					if existing.Person == pid {
						return s.UpdateEventLink(l)
					}
				}
				return s.AddEventLink(l)
			})
			if err != nil {
				return err
			}
			printSuccess("Linked %s to %s", args[0], args[1])
			return nil
		},
	}
	cmd.Flags().StringVar(&style, "style", "line", strings.Join(linkStyles, ", "))
	cmd.Flags().StringVar(&memo, "memo", "", "note on the link")
	_ = cmd.RegisterFlagCompletionFunc("style", cobra.FixedCompletions(linkStyles, cobra.ShellCompDirectiveNoFileComp))
	return cmd
}

func (c *CLI) eventUnlinkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unlink <event> <person>",
		Short: "Remove the link between an event and a person",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			err := c.mutate(cmd.Context(), func(s *tree.Store) error {
				eid, err := resolveEvent(s, args[0])
				if err != nil {
					return err
				}
				pid, err := resolvePerson(s, args[1])
				if err != nil {
					return err
				}
				return s.RemoveEventLink(eid, pid)
			})
			if err != nil {
				return err
			}
			printSuccess("Unlinked %s from %s", args[0], args[1])
			return nil
		},
	}
}

func (c *CLI) eventListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List events with their linked persons",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.read(cmd.Context(), func(s *tree.Store) error {
				var rows [][]string
				for _, ev := range s.Events() {
					var linked []string
					for _, l := range s.LinksOf(ev.ID) {
						if p, ok := s.Person(l.Person); ok {
							linked = append(linked, p.Name+" ("+l.Style.String()+")")
						}
					}
					rows = append(rows, []string{shortID(ev.ID), ev.Name, ev.Date, strings.Join(linked, ", ")})
				}
				printTable([]string{"ID", "Name", "Date", "Linked"}, rows)
				return nil
			})
		},
	}
}
