// Command trackctl is a terminal front end for the phone tracker API.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"phone-tracker/internal/client"
	"phone-tracker/internal/mapview"
	"phone-tracker/internal/service"
	"phone-tracker/internal/tracker"

	"github.com/joho/godotenv"
)

const defaultAPIURL = "http://localhost:8080"

const usage = `usage: trackctl <command> [flags]

commands:
  add           track a phone (-phone, -label, -lat, -lng, -here)
  locate        geolocate a phone number without tracking it (-phone)
  list          list tracked phones
  delete <id>   stop tracking a phone
  map           print the map viewport and pins as JSON (-selected, -width, -height)
  watch         print the list every time it changes (-selected)
  devices       list devices (-search, -ordering)
  device-add    register a device (-name, -owner)
  locations     list location logs (-device, -ordering)
  location-add  record a location log (-device, -lat, -lng, -accuracy)

TRACKER_API_URL selects the API (default http://localhost:8080). TRACKER_POSITION="lat,lng"
provides the device position used by add -here.
`

type app struct {
	api    *client.Client
	in     *bufio.Reader
	out    io.Writer
	errOut io.Writer
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return errors.New("missing command")
	}

	baseURL := os.Getenv("TRACKER_API_URL")
	if baseURL == "" {
		baseURL = defaultAPIURL
	}
	a := &app{
		api:    client.New(baseURL, nil),
		in:     bufio.NewReader(stdin),
		out:    stdout,
		errOut: stderr,
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "add":
		return a.add(ctx, rest)
	case "locate":
		return a.locate(ctx, rest)
	case "list":
		return a.list(ctx)
	case "delete":
		return a.delete(ctx, rest)
	case "map":
		return a.showMap(ctx, rest)
	case "watch":
		return a.watch(ctx, rest)
	case "devices":
		return a.devices(ctx, rest)
	case "device-add":
		return a.deviceAdd(ctx, rest)
	case "locations":
		return a.locations(ctx, rest)
	case "location-add":
		return a.locationAdd(ctx, rest)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		fmt.Fprint(stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *app) add(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	phone := fs.String("phone", "", "phone number")
	label := fs.String("label", "", "label, defaults to the phone number")
	lat := fs.String("lat", "", "latitude; leave empty to geolocate")
	lng := fs.String("lng", "", "longitude; leave empty to geolocate")
	here := fs.Bool("here", false, "use the position from TRACKER_POSITION")
	if err := fs.Parse(args); err != nil {
		return err
	}

	form := tracker.NewForm(a.api, func(context.Context) {
		fmt.Fprintln(a.out, "Phone added")
	})
	form.Set(tracker.Fields{PhoneNumber: *phone, Label: *label, Latitude: *lat, Longitude: *lng})

	if *here {
		if err := form.UseCurrentLocation(ctx, envPosition()); err != nil {
			return err
		}
	}
	return form.Submit(ctx)
}

func (a *app) locate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("locate", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	phone := fs.String("phone", "", "phone number")
	if err := fs.Parse(args); err != nil {
		return err
	}

	form := tracker.NewForm(a.api, nil)
	form.Set(tracker.Fields{PhoneNumber: *phone})
	if err := form.AutoLocate(ctx); err != nil {
		return err
	}

	state := form.State()
	fmt.Fprintf(a.out, "%s, %s\n", state.Latitude, state.Longitude)
	return nil
}

func (a *app) list(ctx context.Context) error {
	phones, err := a.api.ListPhones(ctx)
	if err != nil {
		return err
	}
	printList(a.out, tracker.Rows(phones, "", time.Local))
	return nil
}

func (a *app) delete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: trackctl delete <id>")
	}

	list := tracker.NewList(a.api, a, a, func(context.Context) {
		fmt.Fprintln(a.out, "Phone deleted")
	})
	_, err := list.Delete(ctx, args[0])
	return err
}

func (a *app) showMap(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("map", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	selected := fs.String("selected", "", "selected phone id")
	width := fs.Int("width", mapview.DefaultCanvas.Width, "canvas width in pixels")
	height := fs.Int("height", mapview.DefaultCanvas.Height, "canvas height in pixels")
	if err := fs.Parse(args); err != nil {
		return err
	}

	phones, err := a.api.ListPhones(ctx)
	if err != nil {
		return err
	}
	view := mapview.Render(phones, *selected, mapview.Canvas{Width: *width, Height: *height}, time.Local)
	return printJSON(a.out, view)
}

func (a *app) watch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	selected := fs.String("selected", "", "selected phone id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	coord := tracker.NewCoordinator(tracker.Remote{Client: a.api}, mapview.DefaultCanvas, time.Local)
	if *selected != "" {
		coord.ToggleSelect(*selected)
	}
	coord.OnChange(func(s tracker.Snapshot) {
		printList(a.out, s.List)
		vp := s.Map.Viewport
		fmt.Fprintf(a.out, "map: %s %.4f, %.4f zoom %d\n\n", vp.Mode, vp.Center.Lat, vp.Center.Lng, vp.Zoom)
	})

	err := coord.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (a *app) devices(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("devices", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	search := fs.String("search", "", "name or owner contains")
	ordering := fs.String("ordering", "", "name, created_at, optionally prefixed with -")
	if err := fs.Parse(args); err != nil {
		return err
	}

	q := url.Values{}
	setIf(q, "search", *search)
	setIf(q, "ordering", *ordering)
	page, err := a.api.ListDevices(ctx, q)
	if err != nil {
		return err
	}
	return printJSON(a.out, page)
}

func (a *app) deviceAdd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("device-add", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	name := fs.String("name", "", "device name")
	owner := fs.String("owner", "", "device owner")
	if err := fs.Parse(args); err != nil {
		return err
	}

	device, err := a.api.CreateDevice(ctx, service.DeviceInput{Name: *name, Owner: *owner})
	if err != nil {
		return err
	}
	return printJSON(a.out, device)
}

func (a *app) locations(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("locations", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	device := fs.String("device", "", "device id")
	ordering := fs.String("ordering", "", "captured_at, created_at, optionally prefixed with -")
	if err := fs.Parse(args); err != nil {
		return err
	}

	q := url.Values{}
	setIf(q, "device", *device)
	setIf(q, "ordering", *ordering)
	page, err := a.api.ListLocations(ctx, q)
	if err != nil {
		return err
	}
	return printJSON(a.out, page)
}

func (a *app) locationAdd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("location-add", flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	device := fs.Int64("device", 0, "device id")
	lat := fs.Float64("lat", 0, "latitude")
	lng := fs.Float64("lng", 0, "longitude")
	accuracy := fs.Float64("accuracy", 0, "accuracy in meters")
	if err := fs.Parse(args); err != nil {
		return err
	}

	captured := time.Now().UTC()
	entry, err := a.api.CreateLocation(ctx, service.LocationInput{
		Device:         device,
		Latitude:       lat,
		Longitude:      lng,
		AccuracyMeters: accuracy,
		CapturedAt:     &captured,
	})
	if err != nil {
		return err
	}
	return printJSON(a.out, entry)
}

// Confirm asks on stdin and accepts y or yes.
func (a *app) Confirm(prompt string) bool {
	fmt.Fprintf(a.out, "%s [y/N] ", prompt)
	answer, _ := a.in.ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}
	return false
}

func (a *app) Alert(message string) {
	fmt.Fprintln(a.errOut, message)
}

func printList(w io.Writer, view tracker.ListView) {
	fmt.Fprintln(w, view.Header)
	if view.Empty != "" {
		fmt.Fprintln(w, view.Empty)
		return
	}
	for _, row := range view.Rows {
		marker := " "
		if row.Selected {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %s  %s  %s  %s  %s\n", marker, row.ID, row.Label, row.PhoneNumber, row.Coordinates, row.Updated)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func setIf(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}

// envPosition reads TRACKER_POSITION ("lat,lng"). It returns nil when unset.
func envPosition() tracker.PositionSource {
	v := os.Getenv("TRACKER_POSITION")
	if v == "" {
		return nil
	}
	return staticPosition(v)
}

type staticPosition string

func (p staticPosition) CurrentPosition(context.Context) (tracker.Position, error) {
	lat, lng, ok := strings.Cut(string(p), ",")
	if !ok {
		return tracker.Position{}, fmt.Errorf("expected \"lat,lng\", got %q", string(p))
	}
	la, err := strconv.ParseFloat(strings.TrimSpace(lat), 64)
	if err != nil {
		return tracker.Position{}, fmt.Errorf("invalid latitude %q", lat)
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(lng), 64)
	if err != nil {
		return tracker.Position{}, fmt.Errorf("invalid longitude %q", lng)
	}
	return tracker.Position{Latitude: la, Longitude: lo}, nil
}
