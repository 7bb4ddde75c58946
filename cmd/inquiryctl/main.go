// Command inquiryctl manages inquiries from the terminal through the API.
//
//	inquiryctl [-url URL] list [-page N] [-limit N]
//	inquiryctl get ID
//	inquiryctl patch ID field=value...
//	inquiryctl delete ID
//	inquiryctl import FILE.csv
//	inquiryctl dashboard
//
// The bearer token is read from INQUIRY_API_TOKEN.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"inquirydesk/pkg/client"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("inquiryctl: ")
	_ = godotenv.Load()

	baseURL := flag.String("url", envOr("INQUIRY_API_URL", "http://localhost:8000"), "API base URL")
	timeout := flag.Duration("timeout", 30*time.Second, "request timeout")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	c := client.New(*baseURL, client.StaticToken(os.Getenv("INQUIRY_API_TOKEN")), *timeout)
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := run(ctx, c, flag.Arg(0), flag.Args()[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, c *client.Client, cmd string, args []string) error {
	switch cmd {
	case "list":
		fs := flag.NewFlagSet("list", flag.ExitOnError)
		page := fs.Int("page", 1, "page number")
		limit := fs.Int("limit", 0, "page size (server default when 0)")
		_ = fs.Parse(args)
		result, err := c.List(ctx, *page, *limit)
		if err != nil {
			return err
		}
		return printJSON(result)

	case "get":
		id, err := requireID(args)
		if err != nil {
			return err
		}
		inq, err := c.Get(ctx, id)
		if err != nil {
			return err
		}
		return printJSON(inq)

	case "patch":
		id, err := requireID(args)
		if err != nil {
			return err
		}
		inq, err := c.Get(ctx, id)
		if err != nil {
			return err
		}
		form := client.FormValues(inq)
		for _, kv := range args[1:] {
			k, v, ok := strings.Cut(kv, "=")
			if !ok {
				return fmt.Errorf("expected field=value, got %q", kv)
			}
			form[k] = v
		}
		changes, err := c.PatchChanged(ctx, inq, form)
		if errors.Is(err, client.ErrNoChanges) {
			fmt.Println(err)
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Printf("Inquiry %s updated: %d field(s)\n", id, len(changes))
		return nil

	case "delete":
		id, err := requireID(args)
		if err != nil {
			return err
		}
		if err := c.Delete(ctx, id); err != nil {
			return err
		}
		fmt.Printf("Inquiry %s deleted\n", id)
		return nil

	case "import":
		if len(args) != 1 {
			return errors.New("import takes one CSV file")
		}
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		report, err := c.Import(ctx, f)
		if err != nil {
			return err
		}
		return printJSON(report)

	case "dashboard":
		months, err := c.EntriesByMonth(ctx)
		if err != nil {
			return err
		}
		for _, m := range months {
			fmt.Printf("%s  %d\n", m.Month, m.Total)
		}
		return nil
	}
	return fmt.Errorf("unknown command %q", cmd)
}

func requireID(args []string) (string, error) {
	if len(args) < 1 || args[0] == "" {
		return "", errors.New("missing inquiry ID")
	}
	return args[0], nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `usage: inquiryctl [flags] <command> [args]

commands:
  list [-page N] [-limit N]
  get ID
  patch ID field=value...
  delete ID
  import FILE.csv
  dashboard

flags:
`)
	flag.PrintDefaults()
}
