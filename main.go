package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	apihttp "energy-broker/internal/api/http"
	"energy-broker/internal/audit"
	"energy-broker/internal/auth"
	authorityapp "energy-broker/internal/authority/application"
	authorityevents "energy-broker/internal/authority/application/events"
	authorityrepo "energy-broker/internal/authority/infrastructure/postgres"
	authorityhttp "energy-broker/internal/authority/interfaces/http"
	commissionrepo "energy-broker/internal/commission/infrastructure/postgres"
	commissionhttp "energy-broker/internal/commission/interfaces/http"
	contractapp "energy-broker/internal/contract/application"
	contractevents "energy-broker/internal/contract/application/events"
	contractrepo "energy-broker/internal/contract/infrastructure/postgres"
	contracthttp "energy-broker/internal/contract/interfaces/http"
	"energy-broker/internal/contract/notify"
	"energy-broker/internal/eventing"
	eventingrepo "energy-broker/internal/eventing/infrastructure/postgres"
	"energy-broker/internal/observability/metrics"
	"energy-broker/internal/pricing"
	"energy-broker/internal/signature"
	"energy-broker/internal/tender/adapters/jellyfish"
	tenderapp "energy-broker/internal/tender/application"
	tenderevents "energy-broker/internal/tender/application/events"
	tenderrepo "energy-broker/internal/tender/infrastructure/postgres"
	tenderhttp "energy-broker/internal/tender/interfaces/http"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}

	metrics.Init(db, logger)
	auditRepo := audit.NewRepository(db)

	workflowCfg, err := contractapp.LoadConfig()
	if err != nil {
		logger.Fatalf("workflow config error: %v", err)
	}

	bus := eventing.NewInMemoryBus()
	wireEventLog(bus, logger)
	if cfg.RenewalWebhookURL != "" {
		notify.SubscribeRenewals(bus, notify.NewWebhookNotifier(cfg.RenewalWebhookURL),
			eventingrepo.NewProcessedStore(db), logger)
	}

	loaRepo := authorityrepo.NewLOARepository(db)
	requestRepo := tenderrepo.NewRequestRepository(db)
	responseRepo := tenderrepo.NewResponseRepository(db)
	contractRepo := contractrepo.NewContractRepository(db)
	ruleRepo := commissionrepo.NewRuleRepository(db)
	ledgerRepo := commissionrepo.NewLedgerRepository(db)

	authorityService, err := authorityapp.NewService(loaRepo,
		authorityapp.WithBus(bus),
		authorityapp.WithLogger(logger),
	)
	if err != nil {
		logger.Fatalf("authority service error: %v", err)
	}

	tenderOpts := []tenderapp.ServiceOption{
		tenderapp.WithBus(bus),
		tenderapp.WithLogger(logger),
		tenderapp.WithUpliftPolicy(pricing.UpliftPolicy{MaxPPerKWh: workflowCfg.UpliftMaxPPerKWh}),
		tenderapp.WithDefaultSuppliers(cfg.DefaultSuppliers),
	}
	if cfg.JellyfishBaseURL != "" {
		quoteClient, err := jellyfish.NewClient(cfg.JellyfishBaseURL, cfg.JellyfishAPIKey)
		if err != nil {
			logger.Fatalf("jellyfish client error: %v", err)
		}
		tenderOpts = append(tenderOpts, tenderapp.WithQuoteFetcher(quoteClient))
	}
	tenderService, err := tenderapp.NewService(requestRepo, responseRepo, loaRepo, tenderOpts...)
	if err != nil {
		logger.Fatalf("tender service error: %v", err)
	}

	contractOpts := []contractapp.ServiceOption{
		contractapp.WithBus(bus),
		contractapp.WithLogger(logger),
	}
	if cfg.SignBaseURL != "" {
		signClient, err := signature.NewClient(cfg.SignBaseURL, cfg.SignAPIKey)
		if err != nil {
			logger.Fatalf("signature client error: %v", err)
		}
		contractOpts = append(contractOpts, contractapp.WithSignatureClient(signClient))
	}
	contractService, err := contractapp.NewService(contractRepo, ledgerRepo, ruleRepo, responseRepo, contractOpts...)
	if err != nil {
		logger.Fatalf("contract service error: %v", err)
	}

	tenderHandler, err := tenderhttp.NewHandler(tenderService, auditRepo)
	if err != nil {
		logger.Fatalf("tender handler error: %v", err)
	}
	contractHandler, err := contracthttp.NewHandler(contractService, auditRepo)
	if err != nil {
		logger.Fatalf("contract handler error: %v", err)
	}
	loaHandler, err := authorityhttp.NewHandler(authorityService, auditRepo)
	if err != nil {
		logger.Fatalf("loa handler error: %v", err)
	}
	rulesHandler, err := commissionhttp.NewRulesHandler(ruleRepo, commissionrepo.ErrRuleNotFound, auditRepo)
	if err != nil {
		logger.Fatalf("rules handler error: %v", err)
	}
	exportsHandler, err := apihttp.NewExportsHandler(tenderService, contractService)
	if err != nil {
		logger.Fatalf("exports handler error: %v", err)
	}

	go runDailySweep(context.Background(), workflowCfg.Sweep.DailyAt, contractService, authorityService, logger)
	if cfg.SignBaseURL != "" {
		go runSignatureSync(context.Background(), workflowCfg.Signature.PollInterval, contractService, logger)
	}

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/tenders", tenderHandler)
	mux.Handle("/api/v1/tenders/", tenderHandler)
	mux.Handle("/api/v1/contracts", contractHandler)
	mux.Handle("/api/v1/contracts/", contractHandler)
	mux.Handle("/api/v1/loas", loaHandler)
	mux.Handle("/api/v1/loas/", loaHandler)
	mux.Handle("/api/v1/commission-rules", rulesHandler)
	mux.Handle("/api/v1/commission-rules/", rulesHandler)
	mux.Handle("/api/v1/exports/", exportsHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

// wireEventLog subscribes a log line per workflow event, the operational trace
// brokers follow when chasing a contract.
func wireEventLog(bus *eventing.InMemoryBus, logger *log.Logger) {
	bus.Subscribe(eventing.EventTypeOf[tenderevents.RequestSent](), func(ctx context.Context, event any) error {
		evt, ok := event.(tenderevents.RequestSent)
		if !ok {
			return eventing.ErrInvalidEventType
		}
		logger.Printf("tender sent: request=%s suppliers=%d", evt.RequestID, len(evt.Suppliers))
		return nil
	})
	bus.Subscribe(eventing.EventTypeOf[tenderevents.QuotesImported](), func(ctx context.Context, event any) error {
		evt, ok := event.(tenderevents.QuotesImported)
		if !ok {
			return eventing.ErrInvalidEventType
		}
		logger.Printf("quotes imported: request=%s response=%s mapped=%d skipped=%d", evt.RequestID, evt.ResponseID, evt.Mapped, evt.Skipped)
		return nil
	})
	bus.Subscribe(eventing.EventTypeOf[contractevents.StatusChanged](), func(ctx context.Context, event any) error {
		evt, ok := event.(contractevents.StatusChanged)
		if !ok {
			return eventing.ErrInvalidEventType
		}
		logger.Printf("contract transition: contract=%s from=%s to=%s", evt.ContractID, evt.From, evt.To)
		return nil
	})
	bus.Subscribe(eventing.EventTypeOf[contractevents.SignatureUpdated](), func(ctx context.Context, event any) error {
		evt, ok := event.(contractevents.SignatureUpdated)
		if !ok {
			return eventing.ErrInvalidEventType
		}
		logger.Printf("signature update: contract=%s status=%s", evt.ContractID, evt.SignStatus)
		return nil
	})
	bus.Subscribe(eventing.EventTypeOf[contractevents.EndDateAlert](), func(ctx context.Context, event any) error {
		evt, ok := event.(contractevents.EndDateAlert)
		if !ok {
			return eventing.ErrInvalidEventType
		}
		logger.Printf("expiry alert: contract=%s threshold=%d days_left=%d", evt.ContractID, evt.ThresholdDays, evt.DaysUntilEnd)
		return nil
	})
	bus.Subscribe(eventing.EventTypeOf[authorityevents.LOAExpired](), func(ctx context.Context, event any) error {
		evt, ok := event.(authorityevents.LOAExpired)
		if !ok {
			return eventing.ErrInvalidEventType
		}
		logger.Printf("loa expired: loa=%s customer=%s", evt.LOAID, evt.CustomerID)
		return nil
	})
}

// runDailySweep runs the contract and LOA expiry sweeps once a day at the
// configured wall-clock minute (UTC).
func runDailySweep(ctx context.Context, dailyAt string, contracts *contractapp.Service, loas *authorityapp.Service, logger *log.Logger) {
	hour, minute, err := parseDailyAt(dailyAt)
	if err != nil {
		logger.Printf("sweep disabled: bad daily_at %q: %v", dailyAt, err)
		return
	}
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case tick := <-ticker.C:
			now := tick.UTC()
			if now.Hour() != hour || now.Minute() != minute {
				continue
			}
			result, err := contracts.ExpirySweep(ctx, now)
			if err != nil {
				logger.Printf("contract sweep error: %v", err)
			} else {
				logger.Printf("contract sweep: alerts=%d reminders=%d", result.Alerts, result.Reminders)
			}
			expired, err := loas.ExpirySweep(ctx, now)
			if err != nil {
				logger.Printf("loa sweep error: %v", err)
			} else if expired > 0 {
				logger.Printf("loa sweep: expired=%d", expired)
			}
		}
	}
}

// runSignatureSync polls the signature provider for pending contracts.
func runSignatureSync(ctx context.Context, interval time.Duration, contracts *contractapp.Service, logger *log.Logger) {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			changed, err := contracts.SyncSignatures(ctx)
			if err != nil {
				logger.Printf("signature sync error: %v", err)
				continue
			}
			if changed > 0 {
				logger.Printf("signature sync: changed=%d", changed)
			}
		}
	}
}

func parseDailyAt(value string) (int, int, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return 0, 0, err
	}
	return t.Hour(), t.Minute(), nil
}

type config struct {
	DatabaseURL       string
	HTTPAddr          string
	JWTSecret         string
	JellyfishBaseURL  string
	JellyfishAPIKey   string
	SignBaseURL       string
	SignAPIKey        string
	DefaultSuppliers  []string
	RenewalWebhookURL string
}

func loadConfig() config {
	cfg := config{
		DatabaseURL:       getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:          getenvDefault("HTTP_ADDR", ":8080"),
		JWTSecret:         getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		JellyfishBaseURL:  getenvDefault("JELLYFISH_BASE_URL", ""),
		JellyfishAPIKey:   getenvDefault("JELLYFISH_API_KEY", ""),
		SignBaseURL:       getenvDefault("SIGN_BASE_URL", ""),
		SignAPIKey:        getenvDefault("SIGN_API_KEY", ""),
		DefaultSuppliers:  splitList(getenvDefault("DEFAULT_SUPPLIERS", "")),
		RenewalWebhookURL: getenvDefault("RENEWAL_WEBHOOK_URL", ""),
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL or PG_DSN is required")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET is required")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	var result []string
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
