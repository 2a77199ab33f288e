package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"digitrack/pkg/accounts"
	"digitrack/pkg/booking"
	"digitrack/pkg/config"
	"digitrack/pkg/database"
	"digitrack/pkg/models"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const usage = `usage: manage <command> [flags]

commands:
  create-mto      -username -password [-name]
  set-owner       -homestay -username
  seed-bookings   [-username -password -homestay -days]
`

type commands struct {
	accounts *accounts.Service
	bookings *booking.Service
	now      func() time.Time
	out      io.Writer
}

func main() {
	cfg := config.Load()
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()

	db, err := database.Open(cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}

	cmds := newCommands(db, log, os.Stdout)
	if err := cmds.run(context.Background(), os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Fatal().Err(err).Msg("command failed")
	}
}

func newCommands(db *gorm.DB, log zerolog.Logger, out io.Writer) *commands {
	bookings := booking.NewService(booking.NewGormRepository(db), log)
	return &commands{
		accounts: accounts.NewService(db, bookings, log),
		bookings: bookings,
		now:      time.Now,
		out:      out,
	}
}

func (c *commands) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(c.out, usage)
		return flag.ErrHelp
	}
	switch args[0] {
	case "create-mto":
		return c.createMTO(ctx, args[1:])
	case "set-owner":
		return c.setOwner(ctx, args[1:])
	case "seed-bookings":
		return c.seedBookings(ctx, args[1:])
	}
	fmt.Fprint(c.out, usage)
	return fmt.Errorf("unknown command %q", args[0])
}

func (c *commands) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.out)
	return fs
}

func (c *commands) createMTO(ctx context.Context, args []string) error {
	fs := c.flags("create-mto")
	username := fs.String("username", "", "login name")
	password := fs.String("password", "", "initial password")
	name := fs.String("name", "Municipal Tourism Office", "display name")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := c.accounts.CreateMTO(ctx, *username, *password, *name)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Created MTO account %q (id %d)\n", a.Username, a.ID)
	return nil
}

func (c *commands) setOwner(ctx context.Context, args []string) error {
	fs := c.flags("set-owner")
	homestay := fs.String("homestay", "", "homestay name")
	username := fs.String("username", "", "username of the new owner")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *homestay == "" || *username == "" {
		return errors.New("set-owner needs -homestay and -username")
	}

	if err := c.accounts.SetOwner(ctx, *homestay, *username); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Set owner of %q to %q\n", *homestay, *username)
	return nil
}

// seedBookings fills the next days of a sample homestay's calendar,
// reserving every third day.
func (c *commands) seedBookings(ctx context.Context, args []string) error {
	fs := c.flags("seed-bookings")
	username := fs.String("username", "demo-owner", "owner account, created when missing")
	password := fs.String("password", "Demo-Homestay-2025", "password for a new owner account")
	homestay := fs.String("homestay", "Demo Homestay", "homestay name for a new owner account")
	days := fs.Int("days", 15, "number of days to fill, starting today")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *days <= 0 {
		return errors.New("-days must be positive")
	}

	owner, err := c.accounts.ByUsername(ctx, *username)
	if errors.Is(err, accounts.ErrUserNotFound) {
		var u accounts.HomestayUser
		u, err = c.accounts.AddHomestayUser(ctx, accounts.NewHomestayUser{
			Username:     *username,
			Password:     *password,
			HomestayName: *homestay,
			OwnerName:    "Demo Owner",
			Address:      "Poblacion, Bolinao, Pangasinan",
		})
		if err == nil {
			owner, err = c.accounts.ByID(ctx, u.UserID)
		}
	}
	if err != nil {
		return err
	}

	today := booking.Day(c.now())
	reserved := 0
	for i := 0; i < *days; i++ {
		entry := booking.CalendarEntry{
			Date:   today.AddDate(0, 0, i),
			Status: models.BookingAvailable,
		}
		if i%3 == 0 {
			people := 1 + i%4
			entry.Status = models.BookingReserved
			entry.GuestName = fmt.Sprintf("Sample Guest %d", i+1)
			entry.NumPeople = &people
			entry.ContactNumber = fmt.Sprintf("0917%07d", i+1)
			reserved++
		}
		if _, _, err := c.bookings.UpsertCalendarBooking(ctx, owner.ID, entry); err != nil {
			return fmt.Errorf("seed %s: %w", booking.FormatDate(entry.Date), err)
		}
	}
	fmt.Fprintf(c.out, "Seeded %d days for %q (%d reserved)\n", *days, owner.Username, reserved)
	return nil
}
