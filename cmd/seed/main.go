package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/annuaire-sante/backend/internal/adapters/database"
	"github.com/annuaire-sante/backend/internal/adapters/events"
	"github.com/annuaire-sante/backend/internal/adapters/search"
	"github.com/annuaire-sante/backend/internal/application/services"
	"github.com/annuaire-sante/backend/internal/domain/entities"
	"github.com/annuaire-sante/backend/internal/infrastructure/clients/postgres"
	"github.com/annuaire-sante/backend/internal/infrastructure/clients/typesense"
	"github.com/annuaire-sante/backend/internal/infrastructure/observability"
	"github.com/annuaire-sante/backend/pkg/config"
)

// seedAdmin is the caller seeding runs as
var seedAdmin = &entities.Caller{ID: 1, Role: entities.RoleAdmin}

func main() {
	var migrationsDir string
	var migrateOnly bool
	flag.StringVar(&migrationsDir, "migrations", "migrations", "directory holding *.up.sql files to apply first; empty skips")
	flag.BoolVar(&migrateOnly, "migrate-only", false, "apply migrations and exit without seeding")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	observability.InitLogger(cfg.OTEL.ServiceName+"-seed", cfg.Env)

	ctx := context.Background()

	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pgClient.Close()

	if migrationsDir != "" {
		if err := applyMigrations(ctx, pgClient, migrationsDir); err != nil {
			log.Fatal().Err(err).Msg("failed to apply migrations")
		}
	}
	if migrateOnly {
		return
	}

	if os.Getenv("RESET_DB") == "true" {
		log.Warn().Msg("RESET_DB=true detected, truncating tables before seeding")
		_, err := pgClient.DB().ExecContext(ctx, `
			TRUNCATE TABLE
				stock_items,
				structure_insurances,
				structure_services,
				evaluations,
				search_history,
				structures,
				services,
				insurance_companies,
				products
			RESTART IDENTITY CASCADE
		`)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to reset tables")
		}
	}

	structureRepo := database.NewStructureAdapter(pgClient)
	eventBus := events.NewMemoryEventBus()
	defer eventBus.Close()

	var indexSync *services.IndexSyncService
	if cfg.Typesense.Enabled {
		tsClient, err := typesense.NewClient(ctx, &cfg.Typesense)
		if err != nil {
			log.Warn().Err(err).Msg("Typesense unavailable, structures will not be indexed")
		} else {
			indexSync = services.NewIndexSyncService(structureRepo, search.NewTypesenseAdapter(tsClient), nil)
		}
	}

	catalog := services.NewCatalogService(database.NewCatalogAdapter(pgClient))
	structures := services.NewStructureService(structureRepo, indexSync, eventBus)
	associations := services.NewAssociationService(structureRepo, database.NewAssociationAdapter(pgClient), eventBus)

	s := &seeder{catalog: catalog, structures: structures, associations: associations}
	if err := s.run(ctx); err != nil {
		log.Fatal().Err(err).Msg("seeding failed")
	}

	log.Info().Msg("seeding completed")
}

// applyMigrations runs every *.up.sql file in dir in name order. The
// statements are idempotent so rerunning is safe.
func applyMigrations(ctx context.Context, client *postgres.Client, dir string) error {
	files, err := filepath.Glob(filepath.Join(dir, "*.up.sql"))
	if err != nil {
		return err
	}
	sort.Strings(files)

	for _, file := range files {
		body, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read %s: %w", file, err)
		}
		if _, err := client.DB().ExecContext(ctx, string(body)); err != nil {
			return fmt.Errorf("apply %s: %w", file, err)
		}
		log.Info().Str("file", filepath.Base(file)).Msg("migration applied")
	}
	return nil
}

type seeder struct {
	catalog      *services.CatalogService
	structures   *services.StructureService
	associations *services.AssociationService
}

func (s *seeder) run(ctx context.Context) error {
	serviceNames := []string{"Urgences", "Pédiatrie", "Radiologie", "Analyses sanguines", "Vaccination"}
	serviceIDs := make([]int64, 0, len(serviceNames))
	for _, name := range serviceNames {
		svc := &entities.Service{Name: name}
		if err := s.catalog.CreateService(ctx, seedAdmin, svc); err != nil {
			return fmt.Errorf("service %s: %w", name, err)
		}
		serviceIDs = append(serviceIDs, svc.ID)
	}

	insurerNames := []string{"ARCH Bénin", "NSIA Assurances", "Saham Assurance"}
	insurerIDs := make([]int64, 0, len(insurerNames))
	for _, name := range insurerNames {
		insurer := &entities.InsuranceCompany{Name: name}
		if err := s.catalog.CreateInsurance(ctx, seedAdmin, insurer); err != nil {
			return fmt.Errorf("insurance %s: %w", name, err)
		}
		insurerIDs = append(insurerIDs, insurer.ID)
	}

	productNames := []string{"Paracétamol 500mg", "Amoxicilline 1g", "Artéméther-Luméfantrine"}
	productIDs := make([]int64, 0, len(productNames))
	for _, name := range productNames {
		product := &entities.Product{Name: name}
		if err := s.catalog.CreateProduct(ctx, seedAdmin, product); err != nil {
			return fmt.Errorf("product %s: %w", name, err)
		}
		productIDs = append(productIDs, product.ID)
	}

	weekdays := entities.OpeningHours{
		"monday":    {Open: "08:00", Close: "18:00"},
		"tuesday":   {Open: "08:00", Close: "18:00"},
		"wednesday": {Open: "08:00", Close: "18:00"},
		"thursday":  {Open: "08:00", Close: "18:00"},
		"friday":    {Open: "08:00", Close: "18:00"},
		"saturday":  {Open: "09:00", Close: "13:00"},
		"sunday":    {Closed: true},
	}
	allDay := entities.OpeningHours{}
	for _, day := range []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"} {
		allDay[day] = entities.DayHours{Open: "00:00", Close: "24:00"}
	}

	seeds := []*entities.Structure{
		{
			Name: "CNHU Hubert Koutoukou Maga", Type: entities.StructureTypeHospital,
			Address:  entities.Address{Street: "Avenue Jean-Paul II", City: "Cotonou", Commune: "Cotonou", Department: "Littoral"},
			Latitude: coord(6.3654), Longitude: coord(2.4183), OpeningHours: allDay,
			Status: entities.VerificationVerified,
		},
		{
			Name: "Pharmacie Camp Guézo", Type: entities.StructureTypePharmacy,
			Address:  entities.Address{Street: "Boulevard de la Marina", City: "Cotonou", Commune: "Cotonou", Department: "Littoral"},
			Latitude: coord(6.3569), Longitude: coord(2.4126), OpeningHours: weekdays,
			Status: entities.VerificationVerified,
		},
		{
			Name: "Hôpital de la Mère et de l'Enfant Lagune", Type: entities.StructureTypeHospital,
			Address:  entities.Address{Street: "Rue 108", City: "Cotonou", Commune: "Cotonou", Department: "Littoral"},
			Latitude: coord(6.3578), Longitude: coord(2.4308), OpeningHours: allDay,
			Status: entities.VerificationVerified,
		},
		{
			Name: "Laboratoire Bio-Santé Porto-Novo", Type: entities.StructureTypeLaboratory,
			Address:  entities.Address{City: "Porto-Novo", Commune: "Porto-Novo", Department: "Ouémé"},
			Latitude: coord(6.4969), Longitude: coord(2.6289), OpeningHours: weekdays,
			Status: entities.VerificationVerified,
		},
		{
			Name: "Clinique Les Cocotiers", Type: entities.StructureTypeClinic,
			Address:  entities.Address{City: "Cotonou", Commune: "Cotonou", Department: "Littoral"},
			Latitude: coord(6.3702), Longitude: coord(2.3912), OpeningHours: weekdays,
			Status: entities.VerificationPending,
		},
	}

	for i, structure := range seeds {
		if err := s.structures.Create(ctx, seedAdmin, structure); err != nil {
			return fmt.Errorf("structure %s: %w", structure.Name, err)
		}

		// Spread the catalog across structures so filters have something to narrow
		for j, serviceID := range serviceIDs {
			if (i+j)%2 != 0 {
				continue
			}
			_, err := s.associations.AttachService(ctx, seedAdmin, &entities.ServicePivot{
				StructureID: structure.ID, ServiceID: serviceID,
			})
			if err != nil {
				return fmt.Errorf("attach service to %s: %w", structure.Name, err)
			}
		}
		for j, insurerID := range insurerIDs {
			if (i+j)%3 == 0 {
				continue
			}
			_, err := s.associations.AttachInsurance(ctx, seedAdmin, &entities.InsurancePivot{
				StructureID: structure.ID, InsuranceID: insurerID,
			})
			if err != nil {
				return fmt.Errorf("attach insurance to %s: %w", structure.Name, err)
			}
		}
		if structure.Type == entities.StructureTypePharmacy {
			for j, productID := range productIDs {
				_, err := s.associations.AttachStock(ctx, seedAdmin, &entities.StockItem{
					StructureID: structure.ID, ProductID: productID, Quantity: j * 20,
				})
				if err != nil {
					return fmt.Errorf("attach stock to %s: %w", structure.Name, err)
				}
			}
		}

		log.Info().Int64("id", structure.ID).Str("name", structure.Name).Msg("structure seeded")
	}

	return nil
}

func coord(v float64) *float64 {
	return &v
}
