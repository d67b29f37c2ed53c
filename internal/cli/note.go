package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"notepad/internal/model"
	"notepad/internal/service"
)

// NewNoteCommand creates the note command group. Every change goes through
// an editing session that is closed before the command returns.
func NewNoteCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "note",
		Short: "List and edit notes",
	}
	cmd.AddCommand(
		newNoteListCommand(rootOpts),
		newNoteShowCommand(rootOpts),
		newNoteNewCommand(rootOpts),
		newNoteTodoCommand(rootOpts),
		newNoteDeleteCommand(rootOpts),
	)
	return cmd
}

func newNoteListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List notes, most recently modified first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			notes, err := a.notes.List(cmd.Context())
			if err != nil {
				return err
			}
			now := time.Now()
			for _, note := range notes {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\n", note.ID, noteStatus(note, now), note.Title)
			}
			return nil
		},
	}
}

func newNoteShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := openApp(rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			note, err := a.notes.GetNote(cmd.Context(), id)
			if err != nil {
				return err
			}
			printNote(cmd.OutOrStdout(), *note, time.Now())
			return nil
		},
	}
}

type noteNewOptions struct {
	category uint
	todo     bool
	due      string
}

func newNoteNewCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &noteNewOptions{}
	cmd := &cobra.Command{
		Use:   "new <text>",
		Short: "Write a new note",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			s, err := a.notes.CreateNote(ctx, service.NewNoteInput{
				CategoryID:  opts.category,
				InitialText: strings.Join(args, " "),
			})
			if err != nil {
				return err
			}
			if err := applyNewNote(ctx, s, opts); err != nil {
				if cancelErr := s.Cancel(ctx); cancelErr != nil {
					a.log.Error(ctx, "discard note", "note_id", s.NoteID(), "error", cancelErr)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created note %d %q\n", s.NoteID(), s.Title())
			return nil
		},
	}
	cmd.Flags().UintVar(&opts.category, "category", 0, "category id (default category when omitted)")
	cmd.Flags().BoolVar(&opts.todo, "todo", false, "make the note a to-do")
	cmd.Flags().StringVar(&opts.due, "due", "", "due date, YYYY-MM-DD or \"YYYY-MM-DD HH:MM\" (implies --todo)")
	return cmd
}

func applyNewNote(ctx context.Context, s *service.Session, opts *noteNewOptions) error {
	if opts.todo || opts.due != "" {
		if err := s.SetTodo(ctx, true); err != nil {
			return err
		}
	}
	if opts.due != "" {
		due, err := model.ParseDue(opts.due, time.Local)
		if err != nil {
			return err
		}
		if err := s.SetDueDate(ctx, due); err != nil {
			return err
		}
	}
	return s.Close(ctx)
}

type noteTodoOptions struct {
	off      bool
	done     bool
	undone   bool
	due      string
	clearDue bool
}

func newNoteTodoCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &noteTodoOptions{}
	cmd := &cobra.Command{
		Use:   "todo <id>",
		Short: "Change the to-do state of a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if opts.done && opts.undone {
				return fmt.Errorf("--done and --undone are exclusive")
			}
			a, err := openApp(rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			s, err := a.notes.OpenNote(ctx, id)
			if err != nil {
				return err
			}
			if err := applyTodo(ctx, s, opts); err != nil {
				_ = s.Cancel(ctx)
				return err
			}
			note := s.Note()
			if err := s.Close(ctx); err != nil {
				return err
			}
			printNote(cmd.OutOrStdout(), note, time.Now())
			return nil
		},
	}
	cmd.Flags().BoolVar(&opts.off, "off", false, "turn the to-do off")
	cmd.Flags().BoolVar(&opts.done, "done", false, "mark as done")
	cmd.Flags().BoolVar(&opts.undone, "undone", false, "mark as not done")
	cmd.Flags().StringVar(&opts.due, "due", "", "set the due date")
	cmd.Flags().BoolVar(&opts.clearDue, "clear-due", false, "remove the due date")
	return cmd
}

func applyTodo(ctx context.Context, s *service.Session, opts *noteTodoOptions) error {
	if opts.off {
		return s.SetTodo(ctx, false)
	}
	if !s.Note().IsTodo {
		if err := s.SetTodo(ctx, true); err != nil {
			return err
		}
	}
	if opts.done || opts.undone {
		if err := s.SetCompleted(ctx, opts.done); err != nil {
			return err
		}
	}
	switch {
	case opts.clearDue:
		return s.ClearDueDate(ctx)
	case opts.due != "":
		due, err := model.ParseDue(opts.due, time.Local)
		if err != nil {
			return err
		}
		return s.SetDueDate(ctx, due)
	}
	return nil
}

func newNoteDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := openApp(rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			s, err := a.notes.OpenNote(cmd.Context(), id)
			if err != nil {
				return err
			}
			if err := s.Delete(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted note %d\n", id)
			return nil
		},
	}
}

func noteStatus(note model.Note, now time.Time) string {
	if !note.IsTodo {
		return "note"
	}
	if note.IsCompleted {
		return "done"
	}
	return "todo:" + note.DueStatus(now).String()
}

func printNote(w io.Writer, note model.Note, now time.Time) {
	fmt.Fprintf(w, "#%d %s [%s]\n", note.ID, note.Title, noteStatus(note, now))
	fmt.Fprintf(w, "category: %d\n", note.CategoryID)
	if note.DueDate != nil {
		fmt.Fprintf(w, "due: %s\n", note.DueDate.In(now.Location()).Format(model.DueLayout))
	}
	if !note.ModifiedAt.IsZero() {
		fmt.Fprintf(w, "modified: %s\n", note.ModifiedAt.In(now.Location()).Format(model.DueLayout))
	}
	fmt.Fprintf(w, "\n%s\n", note.Body)
}
