package main

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/finchsec/vendorvet/internal/api"
	"github.com/finchsec/vendorvet/internal/config"
	"github.com/finchsec/vendorvet/internal/db"
	"github.com/finchsec/vendorvet/internal/middleware"
	"github.com/finchsec/vendorvet/internal/services"
	"github.com/finchsec/vendorvet/internal/utils"
)

func main() {
	cfgPath := utils.SafeEnv("VENDORVET_CONFIG", "vendorvet.toml")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// Environment overrides for the deployment-specific bits.
	cfg.Addr = utils.SafeEnv("VENDORVET_ADDR", cfg.Addr)
	cfg.SQLitePath = utils.SafeEnv("VENDORVET_SQLITE_PATH", cfg.SQLitePath)

	store, closeStore, err := openStore(cfg)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer closeStore()

	seedConfig(store, cfg)

	// Assessments whose response was submitted while the server was down are
	// healed to SUBMITTED before anything else reads them.
	lifecycle := services.NewLifecycle()
	if fixed, err := lifecycle.ReconcileSubmitted(store); err != nil {
		log.Printf("lifecycle reconcile: %v", err)
	} else if fixed > 0 {
		log.Printf("lifecycle reconcile: fixed %d assessment(s)", fixed)
	}

	router := api.NewRouter(store)
	tracker := router.Tracker()
	tracker.SetEnabled(cfg.SLAEnabled)

	reminders := services.NewReminderService(store, cfg.Reminders, logSender())
	scheduler := services.NewScheduler(time.Duration(cfg.CheckIntervalMinutes)*time.Minute,
		services.Job{Name: "sla-check", Run: func() error {
			res, err := tracker.CheckBreaches()
			if err != nil {
				return err
			}
			if res.NewBreaches > 0 || res.NewWarnings > 0 {
				log.Printf("sla-check: %d breach(es), %d warning(s)", res.NewBreaches, res.NewWarnings)
			}
			return nil
		}},
		services.Job{Name: "reminders", Run: func() error {
			run, err := reminders.Process()
			if err != nil {
				return err
			}
			if run.RemindersSent > 0 || run.EscalationsSent > 0 {
				log.Printf("reminders: %d sent, %d escalated", run.RemindersSent, run.EscalationsSent)
			}
			return nil
		}},
	)
	scheduler.Start()
	defer scheduler.Stop()

	mux := http.NewServeMux()
	router.Register(mux)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "name": "VendorVet API"})
	})

	handler := middleware.SecureHeaders(middleware.CORS(middleware.WithAuth(mux)))

	log.Printf("VendorVet server listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, handler); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

// openStore picks SQLite when a path is configured, otherwise the in-memory
// store for throwaway runs.
func openStore(cfg *config.Config) (api.Store, func(), error) {
	if cfg.SQLitePath == "" {
		log.Printf("no sqlite_path configured, using in-memory store")
		return api.NewMemoryStore(), func() {}, nil
	}
	conn, err := sql.Open("sqlite3", "file:"+cfg.SQLitePath+"?_busy_timeout=5000")
	if err != nil {
		return nil, nil, err
	}
	if err := db.RunMigrations(conn, cfg.MigrationsDir); err != nil {
		conn.Close()
		return nil, nil, err
	}
	store, err := db.NewStore(conn)
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	return store, func() { conn.Close() }, nil
}

// seedConfig pushes the configured SLA rows and tier rules into the store so
// the API and the background jobs read one source of truth.
func seedConfig(store api.Store, cfg *config.Config) {
	for _, c := range cfg.SLA {
		if err := store.UpsertSLAConfig(c); err != nil {
			log.Printf("seed sla config %s: %v", c.Tier, err)
		}
	}
	if len(cfg.TierRules) > 0 {
		if err := store.ReplaceTierRules(cfg.TierRules); err != nil {
			log.Printf("seed tier rules: %v", err)
		}
	}
}

// logSender stands in for a real mail integration: reminder traffic goes to
// the log. Deployments front this with their own SMTP relay.
func logSender() services.EmailSender {
	return func(to, subject, body string) error {
		log.Printf("mail to=%s subject=%q", to, subject)
		return nil
	}
}
