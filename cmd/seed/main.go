// Package main provides a CLI tool for seeding the database with demo data.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"loomledger/internal/core/apperror"
	"loomledger/internal/core/config"
	"loomledger/internal/core/entity"
	"loomledger/internal/domain/catalogs/party"
	"loomledger/internal/domain/catalogs/yarn"
	"loomledger/internal/domain/ledger"
	"loomledger/internal/domain/registry"
	"loomledger/internal/domain/status"
	"loomledger/internal/infrastructure/storage/postgres"
	"loomledger/pkg/logger"

	"github.com/shopspring/decimal"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := logger.WithLogger(context.Background(), log)

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dbURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatalw("failed to apply schema", "error", err)
	}

	txManager := postgres.NewTxManager(pool)
	auditor, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit service", "error", err)
	}

	partyRepo := postgres.NewPartyRepo(txManager)
	yarnRepo := postgres.NewYarnRepo(txManager)
	registryRepo := postgres.NewRegistryRepo(txManager)
	ledgerRepo := postgres.NewLedgerRepo(txManager)

	cfg := config.DerivationFromEnv()
	engine := status.NewEngine(registryRepo, ledgerRepo, partyRepo, txManager, cfg)

	partyService := party.NewService(partyRepo, engine)
	yarnService := yarn.NewService(yarnRepo)
	registryService := registry.NewService(registryRepo, txManager, engine)
	ledgerService := ledger.NewService(ledgerRepo, partyRepo, registryRepo, engine, auditor, txManager)

	s := &seeder{
		log:      log,
		parties:  partyService,
		partyDir: partyRepo,
		yarn:     yarnService,
		registry: registryService,
		regRepo:  registryRepo,
		ledger:   ledgerService,
	}

	if err := s.run(ctx); err != nil {
		log.Fatalw("seeding failed", "error", err)
	}

	log.Info("seeding completed successfully")
}

type seeder struct {
	log      *logger.Logger
	parties  *party.Service
	partyDir *postgres.PartyRepo
	yarn     *yarn.Service
	registry *registry.Service
	regRepo  *postgres.RegistryRepo
	ledger   *ledger.Service
}

func (s *seeder) run(ctx context.Context) error {
	if err := s.seedParties(ctx); err != nil {
		return err
	}
	if err := s.seedYarnTypes(ctx); err != nil {
		return err
	}
	if os.Getenv("SEED_DEMO_DATA") != "true" {
		return nil
	}
	fabricator, err := s.partyDir.GetByName(ctx, "Shakti Knits")
	if err != nil {
		return err
	}
	dyer, err := s.partyDir.GetByName(ctx, "Rainbow Dyeing")
	if err != nil {
		return err
	}
	if err := s.seedBatch(ctx, fabricator); err != nil {
		return err
	}
	return s.seedEntries(ctx, dyer)
}

func (s *seeder) seedParties(ctx context.Context) error {
	dyeRate := decimal.NewFromInt(12)
	seed := []*party.Party{
		party.New("Vardhman Yarns", party.RoleYarnSupplier),
		party.New("Shakti Knits", party.RoleKnittingUnit),
		party.New("Rainbow Dyeing", party.RoleDyeingUnit),
	}
	seed[2].RatePerKg = &dyeRate

	for _, p := range seed {
		if err := s.parties.Create(ctx, p); err != nil {
			if apperror.IsDuplicate(err) {
				continue
			}
			return fmt.Errorf("create party %q: %w", p.Name, err)
		}
		s.log.Infow("party created", "name", p.Name, "role", p.Role)
	}
	return nil
}

func (s *seeder) seedYarnTypes(ctx context.Context) error {
	for _, name := range []string{"30s Combed Cotton", "2/60 Polyester"} {
		if err := s.yarn.Create(ctx, yarn.New(name)); err != nil {
			if apperror.IsDuplicate(err) {
				continue
			}
			return fmt.Errorf("create yarn type %q: %w", name, err)
		}
		s.log.Infow("yarn type created", "name", name)
	}
	return nil
}

func (s *seeder) seedBatch(ctx context.Context, fabricator *party.Party) error {
	if _, err := s.regRepo.GetBatchByRef(ctx, "200"); err == nil {
		return nil
	} else if !apperror.IsNotFound(err) {
		return err
	}

	b := registry.NewBatch("200", fabricator.ID, "Single Jersey 180gsm", 2, "100% cotton")
	if err := s.registry.CreateBatch(ctx, b, 2); err != nil {
		return fmt.Errorf("create batch: %w", err)
	}
	s.log.Infow("batch created", "batch_ref", b.BatchRef, "lots", 2)
	return nil
}

func (s *seeder) seedEntries(ctx context.Context, dyer *party.Party) error {
	existing, err := s.ledger.PurchasesByBatch(ctx, "200")
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	base := time.Date(2025, time.April, 7, 0, 0, 0, 0, time.UTC)

	purchases := []*ledger.PurchaseEntry{
		{
			Base:        entity.NewBase(),
			Date:        base,
			BatchRef:    "200",
			LotNo:       "200/1",
			Supplier:    "Vardhman Yarns",
			DeliveredTo: "Shakti Knits",
			YarnType:    "30s Combed Cotton",
			QtyKg:       decimal.NewFromInt(160),
			QtyRolls:    8,
			UnitPrice:   decimal.NewFromInt(250),
		},
		{
			Base:        entity.NewBase(),
			Date:        base.AddDate(0, 0, 3),
			BatchRef:    "200",
			LotNo:       "200/1",
			Supplier:    "Shakti Knits",
			DeliveredTo: "Rainbow Dyeing",
			YarnType:    "30s Combed Cotton",
			QtyKg:       decimal.NewFromInt(160),
			QtyRolls:    8,
		},
		{
			Base:        entity.NewBase(),
			Date:        base.AddDate(0, 0, 1),
			BatchRef:    "200",
			LotNo:       "200/2",
			Supplier:    "Vardhman Yarns",
			DeliveredTo: "Shakti Knits",
			YarnType:    "30s Combed Cotton",
			QtyKg:       decimal.NewFromInt(150),
			QtyRolls:    8,
			UnitPrice:   decimal.NewFromInt(250),
		},
	}

	for _, p := range purchases {
		if err := s.ledger.RecordPurchase(ctx, p); err != nil {
			return fmt.Errorf("record purchase %s: %w", p.LotNo, err)
		}
	}
	s.log.Infow("purchases recorded", "count", len(purchases))

	lot, err := s.regRepo.GetLotByNo(ctx, "200/1")
	if err != nil {
		return err
	}

	ret := &ledger.DyeingReturnEntry{
		Base:          entity.NewBase(),
		LotID:         lot.ID,
		DyeingUnitID:  dyer.ID,
		ReturnedDate:  base.AddDate(0, 0, 10),
		ReturnedKg:    decimal.NewFromInt(152),
		ReturnedRolls: 8,
	}
	if err := s.ledger.RecordReturn(ctx, ret); err != nil {
		return fmt.Errorf("record return: %w", err)
	}
	s.log.Infow("dyeing return recorded", "lot_no", lot.LotNo, "returned_kg", ret.ReturnedKg)

	return nil
}
