package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/crewdeskhq/crewdesk/migrate"
	"github.com/crewdeskhq/crewdesk/seed"
	"github.com/crewdeskhq/crewdesk/server"
)

var portvar int

func init() {
	flag.IntVar(&portvar, "p", 9080, "the listen port for the server")
}

func main() {
	flag.Parse()
	log := logrus.StandardLogger()

	// Optionally run schema migrations and seed data before the server starts.
	// Configure via environment variables (see migrate.RunFromEnv and
	// seed.RunFromEnv docs): MIGRATE_ON_START=1 MIGRATE_DRIVER=postgres ...
	if err := migrate.RunFromEnv(); err != nil {
		log.WithError(err).Fatal("migrations failed")
	}
	if err := seed.RunFromEnv(); err != nil {
		log.WithError(err).Fatal("seed failed")
	}

	cfg, err := server.LoadConfig()
	if err != nil {
		log.WithError(err).Fatal("load config")
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		log.WithError(err).Fatal("connect database")
	}

	srv, err := server.NewServer(cfg, db)
	if err != nil {
		log.WithError(err).Fatal("wire server")
	}
	defer srv.Revocation.Close()

	// Bootstrap the initial admin account when requested.
	if username := os.Getenv("ADMIN_USERNAME"); username != "" {
		if err := seed.EnsureAdminUser(context.Background(), db, username, os.Getenv("ADMIN_PASSWORD")); err != nil {
			log.WithError(err).Fatal("ensure admin user")
		}
	}

	engine := server.NewGinEngine(srv)
	addr := fmt.Sprintf(":%d", portvar)
	log.WithField("addr", addr).Info("starting server")
	if err := engine.Run(addr); err != nil {
		log.WithError(err).Fatal("server exited")
	}
}
