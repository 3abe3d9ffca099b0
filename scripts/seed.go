package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/optimed-health/backend/internal/adapters/database"
	"github.com/optimed-health/backend/internal/adapters/search"
	"github.com/optimed-health/backend/internal/application/services"
	"github.com/optimed-health/backend/internal/domain/entities"
	"github.com/optimed-health/backend/internal/domain/repositories"
	"github.com/optimed-health/backend/internal/infrastructure/clients/postgres"
	"github.com/optimed-health/backend/internal/infrastructure/clients/typesense"
	"github.com/optimed-health/backend/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pgClient.Close()

	ctx := context.Background()

	var searchRepo repositories.HospitalSearchRepository
	if tsClient, err := typesense.NewClient(&cfg.Typesense); err == nil {
		adapter := search.NewTypesenseAdapter(tsClient)
		if err := adapter.InitSchema(ctx); err != nil {
			log.Printf("Warning: failed to init search schema: %v", err)
		}
		searchRepo = adapter
	} else {
		log.Printf("Warning: Typesense unavailable, seeding database only: %v", err)
	}

	hospitalRepo := database.NewHospitalAdapter(pgClient)
	hospitalService := services.NewHospitalService(hospitalRepo, searchRepo, nil)

	if os.Getenv("RESET_DB") == "true" {
		log.Println("RESET_DB=true detected, truncating tables before seeding")
		_, err := pgClient.DB().ExecContext(ctx, `
			TRUNCATE TABLE
				queue_notifications,
				queue_entries,
				hospitals
			RESTART IDENTITY CASCADE
		`)
		if err != nil {
			log.Fatalf("Failed to reset tables: %v", err)
		}
	}

	now := time.Now()
	hospitals := []entities.Hospital{
		{
			ID:              uuid.New().String(),
			Name:            "Toronto General Hospital",
			Address:         "200 Elizabeth St, Toronto",
			Location:        entities.Location{Latitude: 43.6591, Longitude: -79.3875},
			PhoneNumber:     "(416) 340-4800",
			Specialties:     []string{"emergency", "cardiology", "transplant"},
			BaselineWaitMin: 45,
			CurrentQueue:    12,
			CreatedAt:       now,
			UpdatedAt:       now,
		},
		{
			ID:              uuid.New().String(),
			Name:            "St. Michael's Hospital",
			Address:         "30 Bond St, Toronto",
			Location:        entities.Location{Latitude: 43.6532, Longitude: -79.3792},
			PhoneNumber:     "(416) 360-4000",
			Specialties:     []string{"emergency", "trauma", "neurosurgery"},
			BaselineWaitMin: 25,
			CurrentQueue:    6,
			CreatedAt:       now,
			UpdatedAt:       now,
		},
		{
			ID:              uuid.New().String(),
			Name:            "Mount Sinai Hospital",
			Address:         "600 University Ave, Toronto",
			Location:        entities.Location{Latitude: 43.6563, Longitude: -79.3896},
			PhoneNumber:     "(416) 596-4200",
			Specialties:     []string{"emergency", "obstetrics", "internal_medicine"},
			BaselineWaitMin: 80,
			CurrentQueue:    21,
			CreatedAt:       now,
			UpdatedAt:       now,
		},
		{
			ID:              uuid.New().String(),
			Name:            "Sunnybrook Health Sciences Centre",
			Address:         "2075 Bayview Ave, Toronto",
			Location:        entities.Location{Latitude: 43.7228, Longitude: -79.3747},
			PhoneNumber:     "(416) 480-6100",
			Specialties:     []string{"emergency", "trauma", "oncology", "burns"},
			BaselineWaitMin: 35,
			CurrentQueue:    9,
			CreatedAt:       now,
			UpdatedAt:       now,
		},
		{
			ID:              uuid.New().String(),
			Name:            "Toronto Western Hospital",
			Address:         "399 Bathurst St, Toronto",
			Location:        entities.Location{Latitude: 43.6536, Longitude: -79.4056},
			PhoneNumber:     "(416) 603-2581",
			Specialties:     []string{"emergency", "neurology", "orthopedics"},
			BaselineWaitMin: 55,
			CurrentQueue:    15,
			CreatedAt:       now,
			UpdatedAt:       now,
		},
	}

	created := 0
	for i := range hospitals {
		if err := hospitalService.Create(ctx, &hospitals[i]); err != nil {
			log.Printf("Failed to create hospital %s: %v", hospitals[i].Name, err)
			continue
		}
		created++
		log.Printf("Seeded %s", hospitals[i].Name)
	}

	log.Printf("Seeding complete: %d/%d hospitals created", created, len(hospitals))
}
