// bookingctl administers reservations directly against the configured
// store, bypassing the HTTP layer.  It reads the same environment (and
// .env file) as the server.
//
// Usage:
//
//	bookingctl create --venue NAME --date D --time T --attendees N \
//	    --organizer O --email E --purpose P [--category C]
//	bookingctl transition --id ID --status confirmed|cancelled --admin EMAIL
//	bookingctl list [--email E] [--status S]
//	bookingctl delete --id ID
//	bookingctl stats
//	bookingctl venues [--attendees N]
//	bookingctl user add --email E --password P --role R [--name N]
//
// With STORE_DRIVER=memory every invocation starts from an empty store,
// which is only useful for trying out the resolution rules.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"

	"github.com/iliyamo/venue-reservation/internal/app"
	"github.com/iliyamo/venue-reservation/internal/config"
)

// usageError is reported with exit code 2.
type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }
func (e *usageError) ExitCode() int { return 2 }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printUsage(out)
		return nil
	}
	if _, ok := commands[args[0]]; !ok {
		return usagef("unknown command %q (run bookingctl help)", args[0])
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("read .env: %w", err)
	}
	cfg := config.Load()
	var opt app.Options
	if cfg.Lock.Backend == config.LockRedis {
		opt.Redis = config.NewRedisClient()
	}
	// The CLI never consumes events; publishing stays as configured.
	ctx := context.Background()
	a, err := app.New(ctx, cfg, config.LoadVenueConfig(), opt)
	if err != nil {
		return err
	}
	defer a.Close()
	return execute(ctx, a, args, out)
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `bookingctl: administer venue reservations

Commands:
  create      admit a new reservation request
  transition  confirm or cancel a pending reservation
  list        list reservations ordered by priority rank
  delete      remove a reservation outright
  stats       count reservations by status
  venues      show the venue catalog, optionally ranked for an audience
  user add    register a requester or administrator account

Run "bookingctl <command> --help" for the flags of a command.
`)
}
