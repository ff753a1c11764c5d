package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/memonote/memo-service/internal/api/validate"
	"github.com/memonote/memo-service/internal/model"
)

func newRootCmd(out io.Writer) *cobra.Command {
	var (
		apiURL  string
		timeout time.Duration
	)
	rootCmd := &cobra.Command{
		Use:           "memoctl",
		Short:         "CLI client for the memo service REST API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(out)
	rootCmd.PersistentFlags().StringVarP(&apiURL, "api", "a", "http://localhost:8080", "Memo service base URL")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 60*time.Second, "Request timeout")
	cli := func() *client { return newClient(apiURL, timeout) }

	rootCmd.AddCommand(
		newListCmd(cli),
		newGetCmd(cli),
		newCreateCmd(cli),
		newUpdateCmd(cli),
		newDeleteCmd(cli),
		newSummarizeCmd(cli),
	)
	return rootCmd
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}

func newListCmd(cli func() *client) *cobra.Command {
	var category, query string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List memos, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := cli().List(cmd.Context(), category, query)
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "Category filter (personal, work, study, idea, other, all)")
	cmd.Flags().StringVarP(&query, "query", "q", "", "Case-insensitive text search; wins over --category")
	return cmd
}

func newGetCmd(cli func() *client) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Get a memo by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := cli().Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, m)
		},
	}
}

// formFlags binds the editable memo fields to cmd's flags.
type formFlags struct {
	title, content, category, tags string
}

func (f *formFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.title, "title", "t", "", "Title")
	cmd.Flags().StringVar(&f.content, "content", "", "Content")
	cmd.Flags().StringVarP(&f.category, "category", "c", "", "Category (default other)")
	cmd.Flags().StringVar(&f.tags, "tags", "", "Comma separated tags")
}

// apply overlays the flags the user set onto form.
func (f *formFlags) apply(cmd *cobra.Command, form *model.MemoForm) {
	if cmd.Flags().Changed("title") {
		form.Title = f.title
	}
	if cmd.Flags().Changed("content") {
		form.Content = f.content
	}
	if cmd.Flags().Changed("category") {
		form.Category = f.category
	}
	if cmd.Flags().Changed("tags") {
		form.Tags = validate.SplitTags(f.tags)
	}
}

func newCreateCmd(cli func() *client) *cobra.Command {
	var f formFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a memo",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			form := model.MemoForm{Tags: []string{}}
			f.apply(cmd, &form)
			m, err := cli().Create(cmd.Context(), form)
			if err != nil {
				return err
			}
			return printJSON(cmd, m)
		},
	}
	f.bind(cmd)
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newUpdateCmd(cli func() *client) *cobra.Command {
	var f formFlags
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Update a memo; fields without a flag keep their current value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cli()
			cur, err := c.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			form := model.MemoForm{Title: cur.Title, Content: cur.Content, Category: cur.Category, Tags: cur.Tags}
			f.apply(cmd, &form)
			m, err := c.Update(cmd.Context(), args[0], form)
			if err != nil {
				return err
			}
			return printJSON(cmd, m)
		},
	}
	f.bind(cmd)
	return cmd
}

func newDeleteCmd(cli func() *client) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a memo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cli().Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return err
		},
	}
}

func newSummarizeCmd(cli func() *client) *cobra.Command {
	var text string
	cmd := &cobra.Command{
		Use:   "summarize [ID]",
		Short: "Summarize a memo's content, or free text with --text",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := cli()
			content := text
			switch {
			case len(args) == 1 && text != "":
				return fmt.Errorf("pass either ID or --text, not both")
			case len(args) == 1:
				m, err := c.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				content = m.Content
			case text == "":
				return fmt.Errorf("ID or --text required")
			}
			summary, err := c.Summarize(cmd.Context(), content)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), summary)
			return err
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "Text to summarize instead of a stored memo")
	return cmd
}
