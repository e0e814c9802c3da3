// Command accountctl is a small operator CLI for the account API.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	apiclient "github.com/the-auction-games/account-api/pkg/api/client"
)

var buildVersion = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "list":
		err = commandList(args)
	case "get":
		err = commandGet(args)
	case "create":
		err = commandCreate(args)
	case "update":
		err = commandUpdate(args)
	case "delete":
		err = commandDelete(args)
	case "validate":
		err = commandValidate(args)
	case "version", "--version", "-v":
		fmt.Println("accountctl", buildVersion)
		return
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Usage: accountctl <command> [flags]

Commands:
  list                       List all accounts
  get --id <id>              Show one account
  create --name --email      Create an account (prompts for password)
  update --id [--name --email --password]
                             Rewrite an account
  delete --id <id>           Delete an account
  validate --email           Check credentials (prompts for password)
  version                    Print version

The API address comes from --api or ACCOUNT_API_URL (default http://localhost:4000).`)
}

func newClient(apiBase string) (*apiclient.Client, error) {
	base := strings.TrimSpace(apiBase)
	if base == "" {
		base = os.Getenv("ACCOUNT_API_URL")
	}
	return apiclient.New(base)
}

func requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// promptPassword reads a password without echo, falling back to the provided
// flag value when one was supplied.
func promptPassword(flagValue, label string) (string, error) {
	if strings.TrimSpace(flagValue) != "" {
		return strings.TrimSpace(flagValue), nil
	}
	fmt.Printf("%s: ", label)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Print("\n")
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(raw), nil
}

func commandList(args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	apiBase := fs.String("api", "", "API base URL")
	fs.Parse(args)

	cli, err := newClient(*apiBase)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext()
	defer cancel()
	accounts, err := cli.ListAccounts(ctx)
	if err != nil {
		return err
	}
	return printJSON(accounts)
}

func commandGet(args []string) error {
	fs := flag.NewFlagSet("get", flag.ExitOnError)
	id := fs.String("id", "", "Account id")
	apiBase := fs.String("api", "", "API base URL")
	fs.Parse(args)

	if strings.TrimSpace(*id) == "" {
		return errors.New("--id is required")
	}
	cli, err := newClient(*apiBase)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext()
	defer cancel()
	acc, err := cli.GetAccount(ctx, *id)
	if err != nil {
		return err
	}
	return printJSON(acc)
}

func commandCreate(args []string) error {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	id := fs.String("id", "", "Account id (generated when omitted)")
	name := fs.String("name", "", "Display name")
	email := fs.String("email", "", "Email address")
	password := fs.String("password", "", "Password (supply to avoid prompt)")
	apiBase := fs.String("api", "", "API base URL")
	fs.Parse(args)

	if strings.TrimSpace(*email) == "" {
		return errors.New("--email is required")
	}
	secret, err := promptPassword(*password, "Password")
	if err != nil {
		return err
	}
	cli, err := newClient(*apiBase)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext()
	defer cancel()
	acc, err := cli.CreateAccount(ctx, apiclient.AccountInput{
		ID:       strings.TrimSpace(*id),
		Name:     strings.TrimSpace(*name),
		Email:    strings.TrimSpace(*email),
		Password: secret,
	})
	if err != nil {
		return err
	}
	return printJSON(acc)
}

func commandUpdate(args []string) error {
	fs := flag.NewFlagSet("update", flag.ExitOnError)
	id := fs.String("id", "", "Account id")
	name := fs.String("name", "", "Display name")
	email := fs.String("email", "", "Email address")
	password := fs.String("password", "", "New password (empty keeps the current one)")
	apiBase := fs.String("api", "", "API base URL")
	fs.Parse(args)

	if strings.TrimSpace(*id) == "" {
		return errors.New("--id is required")
	}
	cli, err := newClient(*apiBase)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext()
	defer cancel()
	err = cli.UpdateAccount(ctx, apiclient.AccountInput{
		ID:       strings.TrimSpace(*id),
		Name:     strings.TrimSpace(*name),
		Email:    strings.TrimSpace(*email),
		Password: strings.TrimSpace(*password),
	})
	if err != nil {
		return err
	}
	fmt.Println("updated", *id)
	return nil
}

func commandDelete(args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	id := fs.String("id", "", "Account id")
	apiBase := fs.String("api", "", "API base URL")
	fs.Parse(args)

	if strings.TrimSpace(*id) == "" {
		return errors.New("--id is required")
	}
	cli, err := newClient(*apiBase)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext()
	defer cancel()
	if err := cli.DeleteAccount(ctx, *id); err != nil {
		return err
	}
	fmt.Println("deleted", *id)
	return nil
}

func commandValidate(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	email := fs.String("email", "", "Email address")
	password := fs.String("password", "", "Password (supply to avoid prompt)")
	apiBase := fs.String("api", "", "API base URL")
	fs.Parse(args)

	if strings.TrimSpace(*email) == "" {
		return errors.New("--email is required")
	}
	secret, err := promptPassword(*password, "Password")
	if err != nil {
		return err
	}
	cli, err := newClient(*apiBase)
	if err != nil {
		return err
	}
	ctx, cancel := requestContext()
	defer cancel()
	acc, err := cli.ValidateAccount(ctx, strings.TrimSpace(*email), secret)
	if err != nil {
		return err
	}
	return printJSON(acc)
}
