// seed-catalog loads base products from a JSON file into the database.
// Rows are matched on sku, so the command can be rerun after editing the file.
//
// Usage:
//	DB_DRIVER=mysql DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-catalog -file catalog.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/genautech/rewards_backend/config"
	"github.com/genautech/rewards_backend/models"
	"github.com/genautech/rewards_backend/store"
	"github.com/sirupsen/logrus"
)

func main() {
	file := flag.String("file", "", "Required: JSON array of base products")
	migrate := flag.Bool("migrate", false, "Run AutoMigrate before seeding")
	flag.Parse()

	if strings.TrimSpace(*file) == "" {
		fmt.Fprintln(os.Stderr, "--file is required")
		os.Exit(1)
	}
	raw, err := os.ReadFile(*file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read %s: %v\n", *file, err)
		os.Exit(1)
	}
	var inputs []models.NewBaseProduct
	if err := json.Unmarshal(raw, &inputs); err != nil {
		fmt.Fprintf(os.Stderr, "invalid catalog file: %v\n", err)
		os.Exit(1)
	}

	if config.DatabaseDriver() == config.DriverMemory {
		fmt.Fprintln(os.Stderr, "DB_DRIVER=memory has nothing to seed; use mysql or sqlite")
		os.Exit(1)
	}
	db := config.ConnectDatabaseWithRetry()
	if *migrate {
		if err := models.MigrateTable(db); err != nil {
			fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
			os.Exit(1)
		}
	}
	repo := store.NewGormStore(db)
	logger := config.GetLogger()
	ctx := context.Background()

	saved, failed := 0, 0
	for i := range inputs {
		if err := inputs[i].Validate(); err != nil {
			failed++
			logger.WithFields(logrus.Fields{"index": i, "sku": inputs[i].Sku}).Error(err.Error())
			continue
		}
		product := inputs[i].ToBaseProduct()
		if err := repo.SaveBaseProduct(ctx, product); err != nil {
			failed++
			config.LogError(logger, "seed-catalog", "main", "SaveBaseProduct", inputs[i].Sku, err)
			continue
		}
		saved++
	}

	fmt.Printf("seeded %d base products (%d failed)\n", saved, failed)
	if failed > 0 {
		os.Exit(1)
	}
}
