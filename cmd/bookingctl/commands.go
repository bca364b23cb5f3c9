package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/pflag"

	"github.com/iliyamo/venue-reservation/internal/app"
	"github.com/iliyamo/venue-reservation/internal/booking"
	"github.com/iliyamo/venue-reservation/internal/model"
	"github.com/iliyamo/venue-reservation/internal/repository"
)

type command func(ctx context.Context, a *app.App, fs *pflag.FlagSet, args []string, out io.Writer) error

var commands = map[string]command{
	"create":     cmdCreate,
	"transition": cmdTransition,
	"list":       cmdList,
	"delete":     cmdDelete,
	"stats":      cmdStats,
	"venues":     cmdVenues,
	"user":       cmdUser,
}

// execute runs the subcommand named by args[0] against a.
func execute(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	if len(args) == 0 {
		return usagef("missing command")
	}
	cmd, ok := commands[args[0]]
	if !ok {
		return usagef("unknown command %q", args[0])
	}
	fs := pflag.NewFlagSet("bookingctl "+args[0], pflag.ContinueOnError)
	fs.SetOutput(out)
	return cmd(ctx, a, fs, args[1:], out)
}

func parse(fs *pflag.FlagSet, args []string) (bool, error) {
	if err := fs.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return false, nil
		}
		return false, usagef("%v", err)
	}
	if rest := fs.Args(); len(rest) > 0 {
		return false, usagef("unexpected argument: %s", rest[0])
	}
	return true, nil
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func cmdCreate(ctx context.Context, a *app.App, fs *pflag.FlagSet, args []string, out io.Writer) error {
	var req booking.Request
	fs.StringVar(&req.Venue, "venue", "", "venue name")
	fs.StringVar(&req.Date, "date", "", "slot date, e.g. 2025-10-02")
	fs.StringVar(&req.Time, "time", "", "slot time, e.g. 14:00")
	fs.IntVar(&req.Attendees, "attendees", 0, "expected number of attendees")
	fs.StringVar(&req.Organizer, "organizer", "", "organizing body")
	fs.StringVar(&req.Email, "email", "", "requester email; decides the priority rank")
	fs.StringVar(&req.Purpose, "purpose", "", "purpose of the booking")
	fs.StringVar(&req.PurposeCategory, "category", "", "AlumniTalk, Workshop, Seminar, Events or Other")
	if ok, err := parse(fs, args); !ok {
		return err
	}
	res, err := a.Engine.CreateReservation(ctx, req)
	if err != nil {
		return err
	}
	return writeJSON(out, res)
}

func cmdTransition(ctx context.Context, a *app.App, fs *pflag.FlagSet, args []string, out io.Writer) error {
	id := fs.Uint64("id", 0, "reservation id")
	status := fs.String("status", "", "confirmed or cancelled")
	admin := fs.String("admin", "", "email of the acting administrator")
	if ok, err := parse(fs, args); !ok {
		return err
	}
	if *id == 0 || *admin == "" {
		return usagef("--id and --admin are required")
	}
	role, err := a.Users.RoleOf(ctx, *admin)
	if err != nil {
		return fmt.Errorf("look up %s: %w", *admin, err)
	}
	r, err := a.Engine.TransitionStatus(ctx, *id, *status, &model.Identity{Email: *admin, Role: role})
	if err != nil {
		return err
	}
	return writeJSON(out, r)
}

func cmdList(ctx context.Context, a *app.App, fs *pflag.FlagSet, args []string, out io.Writer) error {
	email := fs.String("email", "", "only reservations by this requester")
	status := fs.String("status", "", "only reservations with this status")
	if ok, err := parse(fs, args); !ok {
		return err
	}
	rows, err := a.Engine.ListReservations(ctx, booking.Filter{Email: *email, Status: model.Status(*status)})
	if err != nil {
		return err
	}
	return writeJSON(out, rows)
}

func cmdDelete(ctx context.Context, a *app.App, fs *pflag.FlagSet, args []string, out io.Writer) error {
	id := fs.Uint64("id", 0, "reservation id")
	if ok, err := parse(fs, args); !ok {
		return err
	}
	if *id == 0 {
		return usagef("--id is required")
	}
	r, err := a.Engine.DeleteReservation(ctx, *id)
	if err != nil {
		return err
	}
	return writeJSON(out, r)
}

func cmdStats(ctx context.Context, a *app.App, fs *pflag.FlagSet, args []string, out io.Writer) error {
	if ok, err := parse(fs, args); !ok {
		return err
	}
	s, err := a.Engine.Stats(ctx)
	if err != nil {
		return err
	}
	return writeJSON(out, s)
}

func cmdVenues(_ context.Context, a *app.App, fs *pflag.FlagSet, args []string, out io.Writer) error {
	attendees := fs.Int("attendees", 0, "rank halls for this audience size")
	if ok, err := parse(fs, args); !ok {
		return err
	}
	if *attendees < 0 {
		return usagef("--attendees must not be negative")
	}
	if *attendees == 0 {
		return writeJSON(out, a.Catalog.List())
	}
	return writeJSON(out, a.Catalog.Recommend(*attendees))
}

// cmdUser manages accounts.  "add" is the only subcommand.
func cmdUser(ctx context.Context, a *app.App, fs *pflag.FlagSet, args []string, out io.Writer) error {
	if len(args) == 0 || args[0] != "add" {
		return usagef("usage: bookingctl user add --email E --password P --role R [--name N]")
	}
	email := fs.String("email", "", "login email")
	name := fs.String("name", "", "display name (defaults to the email)")
	password := fs.String("password", "", "initial password")
	roleName := fs.String("role", "", "secretary, principal, hod, staff, admin or other")
	if ok, err := parse(fs, args[1:]); !ok {
		return err
	}
	*email = strings.ToLower(strings.TrimSpace(*email))
	if *email == "" || *password == "" {
		return usagef("--email and --password are required")
	}
	role, ok := model.LookupRole(*roleName)
	if !ok {
		return usagef("unknown role %q", *roleName)
	}
	if *name == "" {
		*name = *email
	}
	id, err := a.Users.Create(ctx, *email, *name, *password, role, a.Config.BcryptCost)
	if errors.Is(err, repository.ErrEmailExists) {
		return fmt.Errorf("user %s already exists", *email)
	}
	if err != nil {
		return err
	}
	return writeJSON(out, map[string]any{
		"id":           id,
		"email":        *email,
		"role":         role,
		"priorityRank": role.Rank(),
	})
}
