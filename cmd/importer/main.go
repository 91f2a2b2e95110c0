// Command importer loads a program catalogue CSV into the database.
//
//	importer -file program_summary.csv
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/fitnesshub/program-tracker/internal/config"
	"github.com/fitnesshub/program-tracker/internal/database"
	"github.com/fitnesshub/program-tracker/internal/importer"
	"github.com/fitnesshub/program-tracker/internal/logger"
	"github.com/fitnesshub/program-tracker/internal/repository"
)

func main() {
	path := flag.String("file", "program_summary.csv", "CSV export to import")
	dryRun := flag.Bool("dry-run", false, "parse and report without writing")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("load config", zap.Error(err))
	}
	log, err := logger.New(cfg.Env)
	if err != nil {
		panic(err)
	}
	defer logger.Sync(log)

	f, err := os.Open(*path)
	if err != nil {
		log.Fatal("open csv", zap.Error(err))
	}
	defer f.Close()

	programs, skipped, err := importer.Parse(f, time.Now().UTC())
	if err != nil {
		log.Fatal("parse csv", zap.Error(err))
	}
	for _, s := range skipped {
		log.Warn("row skipped", zap.Int("line", s.Line), zap.Error(s.Err))
	}
	log.Info("csv parsed", zap.Int("programs", len(programs)), zap.Int("skipped", len(skipped)))
	if *dryRun {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := database.Open(ctx, database.Options{
		User: cfg.DBUser,
		Pass: cfg.DBPass,
		Host: cfg.DBHost,
		Port: cfg.DBPort,
		Name: cfg.DBName,
	})
	if err != nil {
		log.Fatal("open database", zap.Error(err))
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatal("migrate", zap.Error(err))
	}

	n, err := importer.Load(ctx, repository.NewSQLStore(db), programs)
	if err != nil {
		log.Fatal("import programs", zap.Error(err))
	}
	log.Info("import finished", zap.Int("inserted", n))
}
