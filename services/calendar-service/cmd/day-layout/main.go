// Command day-layout prints the calendar layout of one day, read from a YAML file or
// fetched from a running calendar-service.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/md-rashed-zaman/clinicboard/libs/config"
	"github.com/md-rashed-zaman/clinicboard/services/calendar-service/internal/calendar"
	"github.com/md-rashed-zaman/clinicboard/services/calendar-service/internal/client"
	"github.com/md-rashed-zaman/clinicboard/services/calendar-service/internal/layout"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "day-layout:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("day-layout", flag.ContinueOnError)
	var (
		file      = fs.String("file", "", "YAML day file")
		server    = fs.String("server", config.String("CALENDAR_SERVICE_URL", ""), "calendar-service base url")
		date      = fs.String("date", time.Now().Format("2006-01-02"), "day to fetch with -server")
		modeFlag  = fs.String("mode", "", "layout mode: global or clustered")
		cancelled = fs.Bool("include-cancelled", false, "show cancelled appointments")
		format    = fs.String("format", "table", "output format: table or json")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if (*file == "") == (*server == "") {
		return errors.New("exactly one of -file or -server is required")
	}
	if *format != "table" && *format != "json" {
		return fmt.Errorf("unknown format %q", *format)
	}

	var view calendar.DayView
	var err error
	if *file != "" {
		view, err = layoutFile(ctx, *file, *modeFlag, *cancelled)
	} else {
		view, err = layoutRemote(ctx, *server, *date, *modeFlag, *cancelled)
	}
	if err != nil {
		return err
	}

	if *format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	}
	return writeTable(out, view)
}

func layoutFile(ctx context.Context, path, modeFlag string, includeCancelled bool) (calendar.DayView, error) {
	df, err := loadDayFile(path)
	if err != nil {
		return calendar.DayView{}, err
	}
	appts, err := df.appointments()
	if err != nil {
		return calendar.DayView{}, err
	}
	if modeFlag == "" {
		modeFlag = df.Mode
	}
	mode, err := layout.ParseMode(modeFlag)
	if err != nil {
		return calendar.DayView{}, err
	}

	cfg := calendar.Config{Layout: layout.DefaultOptions(), DayEndHour: 18}
	if df.DayStartHour != nil {
		cfg.Layout.DayStartHour = *df.DayStartHour
	}
	if df.DayEndHour != nil {
		cfg.DayEndHour = *df.DayEndHour
	}
	if df.PixelsPerHour > 0 {
		cfg.Layout.PixelsPerHour = df.PixelsPerHour
	}

	builder := calendar.NewBuilder(dayLister(appts), cfg)
	return builder.Build(ctx, df.Date, calendar.Query{Mode: mode, IncludeCancelled: includeCancelled})
}

func layoutRemote(ctx context.Context, server, date, modeFlag string, includeCancelled bool) (calendar.DayView, error) {
	mode, err := layout.ParseMode(modeFlag)
	if err != nil {
		return calendar.DayView{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return client.New(server, nil).DayView(ctx, date, calendar.Query{Mode: mode, IncludeCancelled: includeCancelled})
}

func writeTable(out io.Writer, view calendar.DayView) error {
	fmt.Fprintf(out, "%s  mode=%s  columns=%d  max_concurrent=%d  hidden=%d\n\n",
		view.Date, view.LayoutMode, view.Columns, view.MaxConcurrent, view.Hidden)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTIME\tEND\tDOCTOR\tSTATUS\tCOL\tTOP\tHEIGHT\tLEFT%\tWIDTH%")
	for _, e := range view.Events {
		fmt.Fprintf(tw, "%s\t%s\t%02d:%02d\t%s\t%s\t%d/%d\t%.1f\t%.1f\t%.2f\t%.2f\n",
			e.ID, e.Time, e.EndHour, e.EndMinute, e.DoctorName, e.Status,
			e.Column+1, e.Columns, e.Top, e.Height, e.Left, e.Width)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(view.Skipped) > 0 {
		fmt.Fprintln(out)
		for _, s := range view.Skipped {
			fmt.Fprintf(out, "skipped %s: %s\n", s.ID, strings.TrimSpace(s.Reason))
		}
	}
	return nil
}
