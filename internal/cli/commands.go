package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/terraincognita07/timebill/internal/db"
	"github.com/terraincognita07/timebill/internal/metrics"
	"github.com/terraincognita07/timebill/internal/models"
	"github.com/terraincognita07/timebill/internal/services"
)

func newMigrateCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(false)
			if err != nil {
				return err
			}
			defer rt.Close()

			out := cmd.OutOrStdout()
			if statusOnly, _ := cmd.Flags().GetBool("status"); statusOnly {
				status, err := db.InspectMigrations(rt.database)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "applied: %d\n", len(status.Applied))
				for _, version := range status.Pending {
					fmt.Fprintf(out, "pending: %s\n", version)
				}
				return nil
			}

			applied, err := db.ApplyMigrations(rt.database)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(out, "schema is up to date")
				return nil
			}
			for _, version := range applied {
				fmt.Fprintf(out, "applied: %s\n", version)
			}
			return nil
		},
	}
	command.Flags().Bool("status", false, "report applied and pending migrations without applying")
	return command
}

func newBillSummaryCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "bill-summary <bill-id>",
		Short: "Print the total hours, clients and status of a bill",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			billID, err := parseIDArg(args[0], "bill id")
			if err != nil {
				return err
			}
			rt, err := openRuntime(true)
			if err != nil {
				return err
			}
			defer rt.Close()

			summary, err := rt.dependencies().Bills.Summary(billID, time.Now())
			if err != nil {
				return err
			}

			clientNames := make([]string, 0, len(summary.Clients))
			for _, client := range summary.Clients {
				clientNames = append(clientNames, client.Name)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "bill %d (%s)\n", summary.Bill.ID, summary.Bill.ReferenceNumber)
			fmt.Fprintf(out, "work units: %d\n", summary.WorkUnitCount)
			fmt.Fprintf(out, "total hours: %.2f\n", summary.TotalHours)
			fmt.Fprintf(out, "clients: %s\n", strings.Join(clientNames, ", "))
			fmt.Fprintf(out, "paid: %t overdue: %t\n", summary.Paid, summary.Overdue)
			return nil
		},
	}
}

func newDeleteBillCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-bill <bill-id>",
		Short: "Delete a bill and detach its work units",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			billID, err := parseIDArg(args[0], "bill id")
			if err != nil {
				return err
			}
			rt, err := openRuntime(true)
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.dependencies().Bills.DeleteBill(billID); err != nil {
				if errors.Is(err, services.ErrBillNotFound) {
					metrics.RecordBillDeletion(metrics.ResultNotFound)
				} else {
					metrics.RecordBillDeletion(metrics.ResultError)
				}
				return err
			}
			metrics.RecordBillDeletion(metrics.ResultOK)
			fmt.Fprintf(cmd.OutOrStdout(), "deleted bill %d\n", billID)
			return nil
		},
	}
}

func newResolveRatesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve-rates <project-id>",
		Short: "Print the rates that apply to a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := parseIDArg(args[0], "project id")
			if err != nil {
				return err
			}
			rt, err := openRuntime(true)
			if err != nil {
				return err
			}
			defer rt.Close()

			resolution, err := rt.dependencies().Rates.ResolveRates(projectID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "rates owned by project %d (%s)\n", resolution.Owner.ID, resolution.Owner.Name)
			for _, rate := range resolution.Rates {
				fmt.Fprintf(out, "%d\t%s\t%d\n", rate.ID, rate.Name, rate.Amount)
			}
			return nil
		},
	}
}

func newIssueTokenCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "issue-token <user-id>",
		Short: "Mint a bearer token for an existing user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseIDArg(args[0], "user id")
			if err != nil {
				return err
			}
			ttl, _ := cmd.Flags().GetDuration("ttl")

			rt, err := openRuntime(true)
			if err != nil {
				return err
			}
			defer rt.Close()

			secret, err := rt.cfg.Secret()
			if err != nil {
				return err
			}
			if _, err := rt.dependencies().Users.FindByID(userID); err != nil {
				return err
			}

			token, err := services.BuildAuthToken([]byte(secret), userID, ttl, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	command.Flags().Duration("ttl", services.DefaultAuthTokenTTL, "token lifetime")
	return command
}

func newCreateUserCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "create-user <login>",
		Short: "Add a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			login := strings.TrimSpace(args[0])
			if login == "" {
				return errors.New("login is required")
			}
			name, _ := cmd.Flags().GetString("name")

			rt, err := openRuntime(true)
			if err != nil {
				return err
			}
			defer rt.Close()

			if _, found, err := rt.repos.Users.FindByLogin(login); err != nil {
				return fmt.Errorf("load user: %w", err)
			} else if found {
				return fmt.Errorf("user %s already exists", login)
			}

			user := models.User{Login: login, Name: strings.TrimSpace(name), CreatedAt: time.Now()}
			if err := rt.repos.Users.Create(&user); err != nil {
				return fmt.Errorf("create user: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %d (%s)\n", user.ID, user.Login)
			return nil
		},
	}
	command.Flags().String("name", "", "display name")
	return command
}

func newCreateClientCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "create-client <name>",
		Short: "Add a client that projects can bill to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			if name == "" {
				return errors.New("client name is required")
			}

			rt, err := openRuntime(true)
			if err != nil {
				return err
			}
			defer rt.Close()

			client := models.Client{Name: name}
			if err := rt.repos.Clients.Create(&client); err != nil {
				return fmt.Errorf("create client: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created client %d (%s)\n", client.ID, client.Name)
			return nil
		},
	}
}
