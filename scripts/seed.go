package main

import (
	"context"
	"flag"
	"log"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/virtuefdn/medbridge/backend/internal/adapters/catalog"
	"github.com/virtuefdn/medbridge/backend/internal/infrastructure/clients/postgres"
	"github.com/virtuefdn/medbridge/backend/pkg/config"
)

// Seeds the facilities table from the CSV export so the API can run
// with CATALOG_SOURCE=postgres.
func main() {
	var truncate bool
	flag.BoolVar(&truncate, "truncate", false, "truncate the facilities table before seeding")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	rows, err := catalog.NewCSVSource(cfg.Catalog.CSVPath).LoadAll(ctx)
	if err != nil {
		log.Fatalf("Failed to load CSV: %v", err)
	}
	log.Printf("Loaded %d rows from %s", len(rows), cfg.Catalog.CSVPath)

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pgClient.Close()

	if truncate {
		if _, err := pgClient.DB().ExecContext(ctx, "TRUNCATE TABLE facilities"); err != nil {
			log.Fatalf("Failed to truncate facilities: %v", err)
		}
		log.Println("Truncated facilities table")
	}

	db := goqu.New("postgres", pgClient.DB())

	inserted := 0
	for _, f := range rows {
		if f.PKUniqueID == "" {
			f.PKUniqueID = uuid.NewString()
		}

		record := goqu.Record{
			"pk_unique_id":             f.PKUniqueID,
			"unique_id":                f.UniqueID,
			"name":                     f.Name,
			"organization_type":        string(f.OrganizationType),
			"facility_type":            f.FacilityType,
			"address_line1":            f.AddressLine1,
			"city":                     f.City,
			"region":                   f.Region,
			"country":                  f.Country,
			"operator_type":            f.OperatorType,
			"description":              f.Description,
			"organization_description": f.OrganizationDescription,
			"mission_statement":        f.MissionStatement,
			"latitude":                 f.Latitude,
			"longitude":                f.Longitude,
			"beds":                     f.Beds,
			"doctors":                  f.Doctors,
			"year_established":         f.YearEstablished,
			"area":                     f.AreaSqm,
			"specialties":              pq.Array(f.Specialties),
			"procedures":               pq.Array(f.Procedures),
			"equipment":                pq.Array(f.Equipment),
			"capabilities":             pq.Array(f.Capabilities),
		}

		query, args, err := db.Insert("facilities").Rows(record).ToSQL()
		if err != nil {
			log.Fatalf("Failed to build insert for %s: %v", f.PKUniqueID, err)
		}
		if _, err := pgClient.DB().ExecContext(ctx, query, args...); err != nil {
			log.Printf("Failed to insert %s: %v", f.PKUniqueID, err)
			continue
		}
		inserted++
	}

	log.Printf("Seeded %d/%d facilities", inserted, len(rows))
}
