package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"phone-tracker/internal/config"
	"phone-tracker/internal/logging"
	"phone-tracker/internal/models"
	"phone-tracker/internal/repository"

	"github.com/go-gota/gota/dataframe"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

var requiredColumns = []string{"phone_number", "latitude", "longitude"}

func main() {
	file := flag.String("file", "", "Path to the CSV file to import (phone_number,label,latitude,longitude)")
	configPath := flag.String("config", "configs", "Directory holding app.env")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}
	if err := logging.Setup(cfg.LogLevel, "console", os.Stderr); err != nil {
		log.Fatal().Err(err).Msg("cannot set up logging")
	}

	if *file == "" {
		log.Fatal().Msg("--file flag is required")
	}

	log.Info().Str("file", *file).Msg("starting import")

	f, err := os.Open(*file)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot open file")
	}
	records, err := parseCSV(f)
	f.Close()
	if err != nil {
		log.Fatal().Err(err).Msg("cannot parse CSV")
	}

	log.Info().Int("records", len(records)).Msg("parsed")

	ctx := context.Background()

	// Connect to DB
	conn, err := pgx.Connect(ctx, cfg.DBSource)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot connect to db")
	}
	defer conn.Close(ctx)

	if err := repository.EnsureSchema(ctx, conn); err != nil {
		log.Fatal().Err(err).Msg("cannot prepare schema")
	}

	before, err := countPhones(ctx, conn)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot count phones")
	}

	if err := insertRecords(ctx, conn, records); err != nil {
		log.Fatal().Err(err).Msg("cannot insert records")
	}

	// Verify data
	after, err := countPhones(ctx, conn)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot count phones")
	}
	if after-before != len(records) {
		log.Fatal().Int("expected", len(records)).Int("inserted", after-before).Msg("record count mismatch")
	}

	log.Info().Int("records", len(records)).Msg("import complete")
}

// parseCSV reads phones from a CSV with a header row. label is optional and defaults to the
// phone number; every row must carry a phone number and in-range coordinates.
func parseCSV(r io.Reader) ([]models.NewTrackedPhone, error) {
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.NaNValues(nil),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", df.Err)
	}

	names := make(map[string]bool, df.Ncol())
	for _, name := range df.Names() {
		names[name] = true
	}
	for _, col := range requiredColumns {
		if !names[col] {
			return nil, fmt.Errorf("missing required column %q", col)
		}
	}

	phones := df.Col("phone_number").Records()
	lats := df.Col("latitude").Records()
	lngs := df.Col("longitude").Records()
	var labels []string
	if names["label"] {
		labels = df.Col("label").Records()
	}

	records := make([]models.NewTrackedPhone, 0, df.Nrow())
	for i := 0; i < df.Nrow(); i++ {
		line := i + 2

		phone := strings.TrimSpace(phones[i])
		if phone == "" {
			return nil, fmt.Errorf("line %d: missing phone number", line)
		}

		lat, err := strconv.ParseFloat(strings.TrimSpace(lats[i]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid latitude: %s", line, lats[i])
		}
		lng, err := strconv.ParseFloat(strings.TrimSpace(lngs[i]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid longitude: %s", line, lngs[i])
		}
		if !models.ValidCoordinates(lat, lng) {
			return nil, fmt.Errorf("line %d: coordinates out of range: %s, %s", line, lats[i], lngs[i])
		}

		label := phone
		if labels != nil && strings.TrimSpace(labels[i]) != "" {
			label = strings.TrimSpace(labels[i])
		}

		records = append(records, models.NewTrackedPhone{
			PhoneNumber: phone,
			Label:       label,
			Latitude:    lat,
			Longitude:   lng,
		})
	}

	for key, group := range df.GroupBy("phone_number").GetGroups() {
		if group.Nrow() > 1 {
			log.Warn().Str("phone_number", key).Int("rows", group.Nrow()).Msg("phone number appears more than once")
		}
	}

	return records, nil
}

func insertRecords(ctx context.Context, conn *pgx.Conn, records []models.NewTrackedPhone) error {
	// Use CopyFrom for bulk insert
	_, err := conn.CopyFrom(
		ctx,
		pgx.Identifier{"tracked_phones"},
		[]string{"phone_number", "label", "latitude", "longitude"},
		pgx.CopyFromSlice(len(records), func(i int) ([]interface{}, error) {
			r := records[i]
			return []interface{}{r.PhoneNumber, r.Label, r.Latitude, r.Longitude}, nil
		}),
	)
	return err
}

func countPhones(ctx context.Context, conn *pgx.Conn) (int, error) {
	var count int
	if err := conn.QueryRow(ctx, "SELECT COUNT(*) FROM tracked_phones").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}
