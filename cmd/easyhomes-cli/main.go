// Command easyhomes-cli browses listings and submits bookings against an Easy Homes API.
//
//	easyhomes-cli search [--query q] [--district d] [--pincode p] [--state s] [--rent n]
//	easyhomes-cli facets
//	easyhomes-cli commit --user-id u --home-id h --screenshot file
//
// The API base URL comes from --api-url or EASYHOMES_API_URL.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"

	"easyhomes/internal/booking"
	"easyhomes/internal/models"
	"easyhomes/internal/search"
	"easyhomes/pkg/client"
	"easyhomes/pkg/logger"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const defaultAPIURL = "http://localhost:8080"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errors.New("usage: easyhomes-cli <search|facets|commit> [flags]")
	}
	cmd, args := args[0], args[1:]

	v := viper.New()
	v.SetEnvPrefix("EASYHOMES")
	v.SetDefault("api_url", defaultAPIURL)
	v.SetDefault("log_level", "warn")
	v.AutomaticEnv()

	fs := pflag.NewFlagSet(cmd, pflag.ContinueOnError)
	fs.String("api-url", defaultAPIURL, "Easy Homes API base URL")
	fs.String("log-level", "warn", "log level")

	switch cmd {
	case "search":
		fs.String("query", "", "free text matched against title, street, town and state")
		fs.String("district", "", "exact district (town)")
		fs.String("pincode", "", "exact pincode")
		fs.String("state", "", "exact state")
		fs.String("rent", "", "rent ceiling, one of "+rentChoices())
	case "facets":
	case "commit":
		fs.String("user-id", "", "id of the user making the booking")
		fs.String("home-id", "", "id of the claimed listing")
		fs.String("screenshot", "", "path to the payment screenshot")
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := v.BindPFlags(fs); err != nil {
		return fmt.Errorf("failed to bind flags: %w", err)
	}
	// flag names use dashes, env keys underscores
	for key, flag := range map[string]string{"api_url": "api-url", "log_level": "log-level"} {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return fmt.Errorf("failed to bind --%s: %w", flag, err)
		}
	}

	log, err := logger.New(v.GetString("log_level"), "development", "easyhomes-cli")
	if err != nil {
		return err
	}
	defer log.Sync()

	api := client.New(v.GetString("api_url"), nil)

	switch cmd {
	case "search":
		return runSearch(ctx, api, v, log, out)
	case "facets":
		return runFacets(ctx, api, log, out)
	default:
		return runCommit(ctx, api, v, log, out)
	}
}

func rentChoices() string {
	opts := make([]string, 0, len(search.RentOptions))
	for _, r := range search.RentOptions {
		opts = append(opts, strconv.FormatFloat(r, 'f', -1, 64))
	}
	return strings.Join(opts, ", ")
}

func loadView(ctx context.Context, api *client.Client, log *zap.Logger, out io.Writer) *search.View {
	view := search.NewView(api, log)
	view.Load(ctx)
	homesErr, commitsErr := view.Errors()
	for _, msg := range []string{homesErr, commitsErr} {
		if msg != "" {
			fmt.Fprintln(out, msg)
		}
	}
	return view
}

func runSearch(ctx context.Context, api *client.Client, v *viper.Viper, log *zap.Logger, out io.Writer) error {
	maxRent, err := search.ParseRent(v.GetString("rent"))
	if err != nil {
		return err
	}
	criteria := search.Criteria{
		Query:    v.GetString("query"),
		District: v.GetString("district"),
		Pincode:  v.GetString("pincode"),
		State:    v.GetString("state"),
		MaxRent:  maxRent,
	}

	view := loadView(ctx, api, log, out)
	results := view.SetCriteria(criteria)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tADDRESS\tPINCODE\tRENT\tRENTER")
	for _, h := range results {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.0f\t%s\n",
			h.ID, h.Title, strings.Join([]string{h.Street, h.Town, h.State}, ", "),
			h.Pincode, h.RentPrice, renterLabel(h))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "%d of %d listings, %d commits\n", len(results), len(view.Homes()), len(view.Commits()))
	return nil
}

func renterLabel(h models.Home) string {
	if !search.CanShowRenterInfo(h) {
		return "available"
	}
	return strings.TrimSpace(h.Renter.Firstname + " " + h.Renter.Lastname)
}

func runFacets(ctx context.Context, api *client.Client, log *zap.Logger, out io.Writer) error {
	view := loadView(ctx, api, log, out)
	f := view.Facets()

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "districts\t%s\n", strings.Join(f.Districts, ", "))
	fmt.Fprintf(tw, "pincodes\t%s\n", strings.Join(f.Pincodes, ", "))
	fmt.Fprintf(tw, "states\t%s\n", strings.Join(f.States, ", "))
	fmt.Fprintf(tw, "rent\t%s\n", rentChoices())
	return tw.Flush()
}

func runCommit(ctx context.Context, api *client.Client, v *viper.Viper, log *zap.Logger, out io.Writer) error {
	homeID := v.GetString("home-id")
	path := v.GetString("screenshot")
	if homeID == "" || path == "" {
		return errors.New("--home-id and --screenshot are required")
	}

	homes, err := api.FetchHomes(ctx)
	if err != nil {
		log.Debug("fetch homes failed", zap.Error(err))
		return errors.New(search.HomesLoadFailed)
	}
	var home *models.Home
	for i := range homes {
		if homes[i].ID == homeID {
			home = &homes[i]
			break
		}
	}
	if home == nil {
		return fmt.Errorf("listing %s not found", homeID)
	}

	modal := booking.NewModal(api, v.GetString("user-id"), log)
	if err := modal.OpenFor(*home); err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read screenshot: %w", err)
	}
	if err := modal.AttachScreenshot(client.Screenshot{
		Filename:    filepath.Base(path),
		ContentType: mimetype.Detect(data).String(),
		Data:        data,
	}); err != nil {
		return err
	}

	commit, err := modal.Confirm(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", booking.SubmitFailed, err)
	}
	fmt.Fprintf(out, "%s: commit %s for %s\n", modal.Notice().Message, commit.ID, home.Title)
	return nil
}
