package main

import (
	"fmt"
	"os"

	"github.com/nurpe/snowops-costcontrol/internal/auth"
	"github.com/nurpe/snowops-costcontrol/internal/config"
	"github.com/nurpe/snowops-costcontrol/internal/db"
	"github.com/nurpe/snowops-costcontrol/internal/excel"
	httphandler "github.com/nurpe/snowops-costcontrol/internal/http"
	"github.com/nurpe/snowops-costcontrol/internal/http/middleware"
	"github.com/nurpe/snowops-costcontrol/internal/logger"
	"github.com/nurpe/snowops-costcontrol/internal/pdf"
	"github.com/nurpe/snowops-costcontrol/internal/repository"
	"github.com/nurpe/snowops-costcontrol/internal/service"
	"github.com/nurpe/snowops-costcontrol/internal/workflow"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}

	ledgerRepo := repository.NewLedgerRepository(database)
	auditRepo := repository.NewAuditRepository(database)
	machine := workflow.NewMachine(repository.NewWorkflowStore(database))

	costService := service.NewCostService(service.Deps{
		Ledger:   ledgerRepo,
		History:  auditRepo,
		Workflow: machine,
		Excel:    excel.NewGenerator(),
		PDF:      pdf.NewGenerator(),
	}, cfg, log)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)
	handler := httphandler.NewHandler(costService, log)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment, cfg.HTTP.CORSAllowedOrigins)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("starting cost control service")

	if err := router.Run(addr); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
