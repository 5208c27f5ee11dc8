package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
)

// Loads ingredients or tags from a CSV file with a header row:
//
//	load_csv -model ingredient data/ingredients.csv   (name,measurement_unit)
//	load_csv -model tag data/tags.csv                 (name,color,slug)
func main() {
	model := flag.String("model", "ingredient", "Model to import: ingredient or tag")
	flag.Parse()

	path := "data/ingredients.csv"
	if flag.NArg() > 0 {
		path = flag.Arg(0)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	db, err := database.New(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.RunMigrations(db, cfg.MigrationsDir); err != nil {
		logging.Fatal().Err(err).Msg("failed to run migrations")
	}

	f, err := os.Open(path)
	if err != nil {
		logging.Fatal().Err(err).Str("path", path).Msg("failed to open csv file")
	}
	defer f.Close()

	catalog := service.NewCatalogService(db)
	ctx := context.Background()

	var added int64
	switch strings.ToLower(*model) {
	case "ingredient", "ingredients":
		var rows []models.Ingredient
		if rows, err = readIngredients(f); err == nil {
			added, err = catalog.ImportIngredients(ctx, rows)
		}
	case "tag", "tags":
		var rows []models.Tag
		if rows, err = readTags(f); err == nil {
			added, err = catalog.ImportTags(ctx, rows)
		}
	default:
		err = fmt.Errorf("unknown model %q", *model)
	}
	if err != nil {
		logging.Fatal().Err(err).Str("path", path).Msg("import failed")
	}

	logging.Info().Str("path", path).Str("model", *model).Int64("added", added).Msg("import finished")
}

func readIngredients(r io.Reader) ([]models.Ingredient, error) {
	var out []models.Ingredient
	err := readRecords(r, []string{"name", "measurement_unit"}, func(row map[string]string) error {
		out = append(out, models.Ingredient{Name: row["name"], MeasurementUnit: row["measurement_unit"]})
		return nil
	})
	return out, err
}

func readTags(r io.Reader) ([]models.Tag, error) {
	var out []models.Tag
	err := readRecords(r, []string{"name", "slug"}, func(row map[string]string) error {
		color := strings.ToUpper(row["color"])
		if color == "" {
			color = models.DefaultTagColor
		}
		out = append(out, models.Tag{Name: row["name"], Color: color, Slug: row["slug"]})
		return nil
	})
	return out, err
}

// readRecords maps every data row onto the header names. Rows missing a required
// column value are rejected with their line number.
func readRecords(r io.Reader, required []string, fn func(map[string]string) error) error {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return errors.New("empty csv file")
	}
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff")))
	}
	for _, col := range required {
		if !contains(header, col) {
			return fmt.Errorf("missing column %q", col)
		}
	}

	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}

		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = strings.TrimSpace(record[i])
			}
		}
		for _, col := range required {
			if row[col] == "" {
				return fmt.Errorf("line %d: empty %s", line, col)
			}
		}
		if err := fn(row); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
