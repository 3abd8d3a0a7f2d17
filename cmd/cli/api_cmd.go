package main

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

type userRow struct {
	ID        string `json:"id"`
	FullName  string `json:"fullName"`
	Email     string `json:"email"`
	ServiceID string `json:"serviceId"`
	Status    string `json:"status"`
	Role      *struct {
		Name string `json:"name"`
	} `json:"role"`
}

func (u userRow) roleName() string {
	if u.Role == nil {
		return ""
	}
	return u.Role.Name
}

func newAuthCmd(c *apiClient) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Log in and out",
	}

	var email, serviceID, password, cnic string
	login := &cobra.Command{
		Use:   "login",
		Short: "Log in and save the token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if email == "" && serviceID == "" {
				return errors.New("--email or --service-id is required")
			}
			var out struct {
				Token     string    `json:"token"`
				ExpiresAt time.Time `json:"expiresAt"`
				User      userRow   `json:"user"`
			}
			body := map[string]string{"email": email, "serviceId": serviceID, "password": password, "cnic": cnic}
			if err := c.do(cmd.Context(), http.MethodPost, "/auth/login", body, &out); err != nil {
				return err
			}
			if err := saveToken(out.Token); err != nil {
				return fmt.Errorf("save token: %w", err)
			}
			_, _ = fmt.Fprintf(os.Stdout, "Logged in as %s (%s) until %s\n", out.User.FullName, out.User.roleName(), out.ExpiresAt.Local().Format(time.RFC1123))
			return nil
		},
	}
	login.Flags().StringVar(&email, "email", "", "account email")
	login.Flags().StringVar(&serviceID, "service-id", "", "service id")
	login.Flags().StringVar(&password, "password", "", "password")
	login.Flags().StringVar(&cnic, "cnic", "", "CNIC, for accounts without a password")

	logout := &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved token",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			if err := os.Remove(tokenFile()); err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, "Logged out")
			return nil
		},
	}

	whoami := &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var out struct {
				User userRow `json:"user"`
			}
			if err := c.do(cmd.Context(), http.MethodGet, "/auth/me", nil, &out); err != nil {
				return err
			}
			u := out.User
			if outputFormat(cmd) == "json" {
				return printJSON(os.Stdout, u)
			}
			_, _ = fmt.Fprintf(os.Stdout, "%s <%s> %s, %s\n", u.FullName, u.Email, u.roleName(), u.Status)
			return nil
		},
	}

	cmd.AddCommand(login, logout, whoami)
	return cmd
}

func newInviteCmd(c *apiClient) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invite",
		Short: "Create and redeem invitations",
	}

	var email, serviceID, role string
	var days int
	create := &cobra.Command{
		Use:   "create",
		Short: "Invite a new member (admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			body := map[string]any{"email": email, "serviceId": serviceID, "roleName": role}
			if cmd.Flags().Changed("days") {
				body["expiresInDays"] = days
			}
			var out struct {
				Invite struct {
					Token     string    `json:"token"`
					ExpiresAt time.Time `json:"expiresAt"`
				} `json:"invite"`
				Link string `json:"link"`
			}
			if err := c.do(cmd.Context(), http.MethodPost, "/invites", body, &out); err != nil {
				return err
			}
			if outputFormat(cmd) == "json" {
				return printJSON(os.Stdout, out)
			}
			_, _ = fmt.Fprintf(os.Stdout, "%s\nexpires %s\n", out.Link, out.Invite.ExpiresAt.Local().Format(time.RFC1123))
			return nil
		},
	}
	create.Flags().StringVar(&email, "email", "", "invitee email")
	create.Flags().StringVar(&serviceID, "service-id", "", "invitee service id")
	create.Flags().StringVar(&role, "role", "", "role name (default Warden)")
	create.Flags().IntVar(&days, "days", 7, "days until the invite expires")
	_ = create.MarkFlagRequired("email")
	_ = create.MarkFlagRequired("service-id")

	show := &cobra.Command{
		Use:   "show <token>",
		Short: "Show what an invite is for",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var out map[string]any
			if err := c.do(cmd.Context(), http.MethodGet, "/invites/"+url.PathEscape(args[0]), nil, &out); err != nil {
				return err
			}
			return printJSON(os.Stdout, out)
		},
	}

	var fullName, cnic, password string
	redeem := &cobra.Command{
		Use:   "redeem <token>",
		Short: "Register an account with an invite",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]string{"fullName": fullName, "cnic": cnic, "password": password}
			var out struct {
				Message string  `json:"message"`
				User    userRow `json:"user"`
			}
			if err := c.do(cmd.Context(), http.MethodPost, "/invites/"+url.PathEscape(args[0])+"/register", body, &out); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(os.Stdout, out.Message)
			return nil
		},
	}
	redeem.Flags().StringVar(&fullName, "full-name", "", "full name")
	redeem.Flags().StringVar(&cnic, "cnic", "", "CNIC")
	redeem.Flags().StringVar(&password, "password", "", "password")
	_ = redeem.MarkFlagRequired("full-name")
	_ = redeem.MarkFlagRequired("cnic")
	_ = redeem.MarkFlagRequired("password")

	cmd.AddCommand(create, show, redeem)
	return cmd
}

func newUsersCmd(c *apiClient) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Review and moderate accounts (admin)",
	}

	pending := &cobra.Command{
		Use:   "pending",
		Short: "List accounts awaiting approval",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var out struct {
				Users []userRow `json:"users"`
			}
			if err := c.do(cmd.Context(), http.MethodGet, "/users/pending", nil, &out); err != nil {
				return err
			}
			users := out.Users
			if outputFormat(cmd) == "json" {
				return printJSON(os.Stdout, users)
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "ID\tNAME\tEMAIL\tSERVICE ID\tROLE")
			for _, u := range users {
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", u.ID, u.FullName, u.Email, u.ServiceID, u.roleName())
			}
			return w.Flush()
		},
	}

	transition := func(use, short, action string) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <user-id>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				var out struct {
					User userRow `json:"user"`
				}
				if err := c.do(cmd.Context(), http.MethodPatch, "/users/"+url.PathEscape(args[0])+"/"+action, nil, &out); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(os.Stdout, "%s is now %s\n", out.User.FullName, out.User.Status)
				return nil
			},
		}
	}

	cmd.AddCommand(
		pending,
		transition("approve", "Activate a pending account", "approve"),
		transition("block", "Block an account", "block"),
		transition("unblock", "Reactivate a blocked account", "unblock"),
	)
	return cmd
}

type pollRow struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Options  []struct {
		Label string `json:"label"`
	} `json:"options"`
	Status   string `json:"status"`
	HasVoted bool   `json:"hasVoted"`
	Tally    struct {
		Counts []int `json:"counts"`
		Total  int   `json:"total"`
		Leader *int  `json:"leader"`
	} `json:"tally"`
}

func newPollsCmd(c *apiClient) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "polls",
		Short: "Welfare polls",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List polls with their tallies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var out struct {
				Polls []pollRow `json:"polls"`
			}
			if err := c.do(cmd.Context(), http.MethodGet, "/welfare/polls", nil, &out); err != nil {
				return err
			}
			polls := out.Polls
			if outputFormat(cmd) == "json" {
				return printJSON(os.Stdout, polls)
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tVOTES\tLEADING\tVOTED")
			for _, p := range polls {
				leading := "-"
				if l := p.Tally.Leader; l != nil && *l < len(p.Options) {
					leading = p.Options[*l].Label
				}
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%t\n", p.ID, p.Title, p.Status, p.Tally.Total, leading, p.HasVoted)
			}
			return w.Flush()
		},
	}

	vote := &cobra.Command{
		Use:   "vote <poll-id> <option-index>",
		Short: "Cast a vote",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("option index must be a number: %w", err)
			}
			var out struct {
				Poll pollRow `json:"poll"`
			}
			body := map[string]int{"optionIndex": idx}
			if err := c.do(cmd.Context(), http.MethodPost, "/welfare/polls/"+url.PathEscape(args[0])+"/vote", body, &out); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(os.Stdout, "Vote recorded, %d total\n", out.Poll.Tally.Total)
			return nil
		},
	}

	cmd.AddCommand(list, vote)
	return cmd
}
