package main

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/emersion/go-imapsession"
)

func capsCmd(a *app) *cobra.Command {
	var login bool
	cmd := &cobra.Command{
		Use:   "caps",
		Short: "Show server capabilities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.connect(login)
			if err != nil {
				return err
			}
			defer s.close()

			caps, err := s.Caps()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "state: %v\n", s.State())
			for _, c := range caps.Caps() {
				fmt.Fprintln(out, c)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&login, "login", false, "authenticate first, servers often announce more capabilities afterwards")
	return cmd
}

func listCmd(a *app) *cobra.Command {
	var (
		ref        string
		subscribed bool
	)
	cmd := &cobra.Command{
		Use:   "list [PATTERN]",
		Short: "List mailboxes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern := "*"
			if len(args) > 0 {
				pattern = args[0]
			}

			s, err := a.connect(true)
			if err != nil {
				return err
			}
			defer s.close()

			list := s.List
			if subscribed {
				list = s.LSub
			}
			mailboxes, err := list(ref, pattern)
			if err != nil {
				return err
			}
			for _, data := range mailboxes {
				printListData(cmd.OutOrStdout(), data)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&ref, "ref", "", "reference name")
	cmd.Flags().BoolVar(&subscribed, "subscribed", false, "only list subscribed mailboxes (LSUB)")
	return cmd
}

func printListData(w io.Writer, data *imap.ListData) {
	attrs := make([]string, len(data.Attrs))
	for i, attr := range data.Attrs {
		attrs[i] = string(attr)
	}
	delim := "NIL"
	if data.Delim != 0 {
		delim = string(data.Delim)
	}
	fmt.Fprintf(w, "(%s) %s %s\n", strings.Join(attrs, " "), delim, data.Mailbox)
}

var defaultStatusItems = []string{"MESSAGES", "RECENT", "UNSEEN", "UIDNEXT", "UIDVALIDITY"}

func parseStatusItems(names []string) ([]imap.StatusItem, error) {
	items := make([]imap.StatusItem, 0, len(names))
	for _, name := range names {
		item := imap.StatusItem(strings.ToUpper(strings.TrimSpace(name)))
		switch item {
		case imap.StatusItemNumMessages, imap.StatusItemNumRecent, imap.StatusItemNumUnseen,
			imap.StatusItemUIDNext, imap.StatusItemUIDValidity, imap.StatusItemSize:
			items = append(items, item)
		default:
			return nil, fmt.Errorf("unknown status item %q", name)
		}
	}
	return items, nil
}

func statusCmd(a *app) *cobra.Command {
	var itemNames []string
	cmd := &cobra.Command{
		Use:   "status MAILBOX...",
		Short: "Show the status of mailboxes",
		Long: "Show the status of mailboxes. Mailboxes are spread over up to\n" +
			"client.max_connections connections queried concurrently.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := parseStatusItems(itemNames)
			if err != nil {
				return err
			}
			results, err := a.fanOutStatus(args, items)
			if err != nil {
				return err
			}
			for _, data := range results {
				printStatusData(cmd.OutOrStdout(), data)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&itemNames, "items", defaultStatusItems, "status data items to request")
	return cmd
}

// fanOutStatus queries mailboxes over independent connections, each worker
// owning its connection. Results keep the order of mailboxes.
func (a *app) fanOutStatus(mailboxes []string, items []imap.StatusItem) ([]*imap.StatusData, error) {
	results := make([]*imap.StatusData, len(mailboxes))
	workers := min(a.cfg.Client.MaxConnections, len(mailboxes))

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		w := w
		g.Go(func() error {
			s, err := a.connect(true)
			if err != nil {
				return err
			}
			defer s.close()

			for i := w; i < len(mailboxes); i += workers {
				data, err := s.Status(mailboxes[i], items)
				if err != nil {
					return fmt.Errorf("STATUS %s: %w", mailboxes[i], err)
				}
				results[i] = data
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func printStatusData(w io.Writer, data *imap.StatusData) {
	var fields []string
	if data.NumMessages != nil {
		fields = append(fields, fmt.Sprintf("messages=%d", *data.NumMessages))
	}
	if data.NumRecent != nil {
		fields = append(fields, fmt.Sprintf("recent=%d", *data.NumRecent))
	}
	if data.NumUnseen != nil {
		fields = append(fields, fmt.Sprintf("unseen=%d", *data.NumUnseen))
	}
	if data.UIDNext != 0 {
		fields = append(fields, fmt.Sprintf("uidnext=%d", data.UIDNext))
	}
	if data.UIDValidity != 0 {
		fields = append(fields, fmt.Sprintf("uidvalidity=%d", data.UIDValidity))
	}
	if data.Size != nil {
		fields = append(fields, fmt.Sprintf("size=%d", *data.Size))
	}
	fmt.Fprintf(w, "%s %s\n", data.Mailbox, strings.Join(fields, " "))
}

func searchCmd(a *app) *cobra.Command {
	var (
		criteria searchCriteria
		uid      bool
	)
	cmd := &cobra.Command{
		Use:   "search MAILBOX",
		Short: "Search a mailbox",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := criteria.keys()
			if err != nil {
				return err
			}
			if len(keys) == 0 {
				return fmt.Errorf("no search criteria: %w", imap.ErrEmptyInput)
			}

			s, err := a.connect(true)
			if err != nil {
				return err
			}
			defer s.close()

			if err := s.Examine(args[0]); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if uid {
				uids, err := s.UIDSearch(keys)
				if err != nil {
					return err
				}
				for _, n := range uids {
					fmt.Fprintln(out, n)
				}
				return nil
			}
			return s.Search(keys, func(seqNum uint32) {
				fmt.Fprintln(out, seqNum)
			})
		},
	}
	criteria.register(cmd)
	cmd.Flags().BoolVar(&uid, "uid", false, "print UIDs instead of sequence numbers")
	return cmd
}

func sortCmd(a *app) *cobra.Command {
	var (
		criteria searchCriteria
		keyName  string
		reverse  bool
		limit    uint32
	)
	cmd := &cobra.Command{
		Use:   "sort MAILBOX",
		Short: "List the messages of a mailbox in sorted order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseSortKey(keyName)
			if err != nil {
				return err
			}
			filter, err := criteria.keys()
			if err != nil {
				return err
			}

			s, err := a.connect(true)
			if err != nil {
				return err
			}
			defer s.close()

			if err := s.Examine(args[0]); err != nil {
				return err
			}
			if err := s.SortView(key, reverse, filter); err != nil {
				return err
			}

			n := s.ViewLen()
			if limit > 0 && n > limit {
				n = limit
			}
			seqNums := make([]uint32, 0, n)
			for i := uint32(1); i <= n; i++ {
				seqNums = append(seqNums, s.ViewSeqNum(i))
			}
			if len(seqNums) == 0 {
				return nil
			}
			if err := s.FetchSet(seqNums, imap.FetchUID|imap.FetchEnvelope|imap.FetchSize); err != nil {
				return err
			}
			for _, seqNum := range seqNums {
				printMessage(cmd.OutOrStdout(), seqNum, s.Message(seqNum))
			}
			return nil
		},
	}
	criteria.register(cmd)
	cmd.Flags().StringVar(&keyName, "key", "arrival", "sort key: arrival, cc, date, from, size, subject, to or seq")
	cmd.Flags().BoolVarP(&reverse, "reverse", "r", false, "descending order")
	cmd.Flags().Uint32Var(&limit, "limit", 50, "maximum number of messages to print, 0 for all")
	return cmd
}

func parseSortKey(name string) (imap.SortKey, error) {
	name = strings.ToUpper(name)
	if name == "SEQ" {
		return imap.SortKeySeqNum, nil
	}
	key := imap.SortKey(name)
	switch key {
	case imap.SortKeyArrival, imap.SortKeyCc, imap.SortKeyDate, imap.SortKeyFrom,
		imap.SortKeySize, imap.SortKeySubject, imap.SortKeyTo:
		return key, nil
	}
	return "", fmt.Errorf("unknown sort key %q", name)
}

func printMessage(w io.Writer, seqNum uint32, attrs *imap.MessageAttrs) {
	if attrs == nil {
		fmt.Fprintf(w, "%d\n", seqNum)
		return
	}
	date, from, subject := "-", "-", ""
	if env := attrs.Envelope; env != nil {
		if !env.Date.IsZero() {
			date = env.Date.Format("2006-01-02")
		}
		if len(env.From) > 0 {
			from = env.From[0].DisplayName()
		}
		subject = env.Subject
	}
	fmt.Fprintf(w, "%d\t%d\t%s\t%d\t%s\t%s\n", seqNum, attrs.UID, date, attrs.Size, from, subject)
}

func quotaCmd(a *app) *cobra.Command {
	var rights bool
	cmd := &cobra.Command{
		Use:   "quota [MAILBOX]",
		Short: "Show the quotas of a mailbox",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mailbox := imap.InboxName
			if len(args) > 0 {
				mailbox = args[0]
			}

			s, err := a.connect(true)
			if err != nil {
				return err
			}
			defer s.close()

			data, err := s.GetQuotaRoot(mailbox)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printQuotaRoot(out, data)

			if rights {
				myRights, err := s.MyRights(mailbox)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "rights: %s\n", myRights.Rights)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&rights, "rights", false, "also show the rights of the current user (MYRIGHTS)")
	return cmd
}

func printQuotaRoot(w io.Writer, data *imap.QuotaRootData) {
	fmt.Fprintf(w, "%s: roots %q\n", data.Mailbox, data.Roots)
	for _, quota := range data.Quotas {
		resources := make([]string, 0, len(quota.Resources))
		for typ := range quota.Resources {
			resources = append(resources, string(typ))
		}
		slices.Sort(resources)
		for _, typ := range resources {
			res := quota.Resources[imap.QuotaResourceType(typ)]
			fmt.Fprintf(w, "%s %s %d/%d\n", quota.Root, typ, res.Usage, res.Limit)
		}
	}
}
