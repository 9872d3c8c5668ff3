package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/robfig/cron/v3"

	"wgwarden/internal/alert"
	"wgwarden/internal/audit"
	"wgwarden/internal/conncheck"
	"wgwarden/internal/config"
	"wgwarden/internal/database"
	"wgwarden/internal/ddns"
	"wgwarden/internal/handlers"
	"wgwarden/internal/logging"
	"wgwarden/internal/logutil"
	"wgwarden/internal/reconnect"
	"wgwarden/internal/wgctl"
	"wgwarden/internal/wgmon"
)

func main() {
	config.Load()
	logging.Init()

	if err := database.Init(); err != nil {
		log.Fatalf("Database init: %v", err)
	}
	defer database.Close()

	ctl := wgctl.NewExecController(config.Cfg.WgBinary, config.Cfg.WgQuickBinary, config.Cfg.UseSudo, config.Cfg.CommandTimeout)
	recorder := audit.NewRecorder(database.DB, config.Cfg.AuditRetentionDays)
	dispatcher := alert.NewSMTPDispatcher()
	store := database.ClientStore{}

	detector := ddns.NewDetector(ddns.NewLookupResolver())
	tracker := wgmon.NewTracker(ctl, dispatcher, recorder)
	reconnector := reconnect.NewController(ctl, store, recorder, reconnect.NewPingProber())
	checker := conncheck.NewChecker(true)

	handlers.Tracker = tracker
	handlers.Detector = detector
	handlers.Reconnector = reconnector
	handlers.Checker = checker
	handlers.Recorder = recorder

	registerHostnames(detector)

	// DNS change events feed the reconnection controller. Each event is
	// dispatched to its own goroutine so a slow tunnel cycle cannot block
	// this consumer or the polling loop behind it.
	go func() {
		for ev := range detector.Events() {
			reconnector.Dispatch(ev)
		}
	}()

	sched := cron.New()
	sched.AddFunc(fmt.Sprintf("@every %s", config.Cfg.DNSLoopInterval), func() {
		detector.CheckChanges()
	})
	sched.AddFunc(fmt.Sprintf("@every %s", config.Cfg.HandshakeLoopInterval), func() {
		handshakeTick(tracker, store)
	})
	sched.AddFunc("@daily", func() {
		if n, err := recorder.PurgeOldEntries(); err != nil {
			log.Printf("Audit purge: %v", err)
		} else if n > 0 {
			log.Printf("Audit purge: removed %d entries older than %d days", n, config.Cfg.AuditRetentionDays)
		}
	})
	sched.Start()
	log.Printf("Monitoring started (dns=%s, handshake=%s)", config.Cfg.DNSLoopInterval, config.Cfg.HandshakeLoopInterval)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Get("/health", handlers.HealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/monitoring/hostnames", handlers.GetHostnameStatus)
		r.Get("/monitoring/reconnection", handlers.GetReconnectionStatus)
		r.Post("/monitoring/reconnection/clear", handlers.ClearReconnectHistory)
		r.Get("/monitoring/peers", handlers.GetPeerStatus)
		r.Get("/monitoring/alerts", handlers.GetAlertHistory)
		r.Get("/monitoring/events", handlers.GetMonitoringEvents)
		r.Get("/monitoring/system", handlers.GetSystemMetrics)

		r.Post("/clients/{id}/reconnect", handlers.TriggerReconnect)
		r.Post("/clients/{id}/test", handlers.TestConnectivity)
		r.Get("/clients/{id}/test-history", handlers.GetTestHistory)

		r.Get("/logs", handlers.GetLogs)
	})

	srv := &http.Server{
		Addr:    config.Cfg.ListenAddr,
		Handler: r,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("Server starting on %s", config.Cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-sigCtx.Done()
	log.Println("Shutting down...")

	// Stop scheduling new ticks; in-flight reconnects are allowed to
	// complete or fail naturally.
	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Shutdown error: %v", err)
	}
	log.Println("Server stopped")
}

// registerHostnames seeds the change detector from the stored clients whose
// tunnel configs point at a non-literal endpoint hostname.
func registerHostnames(detector *ddns.Detector) {
	clients, err := database.ListClients()
	if err != nil {
		log.Printf("Hostname registration: list clients: %v", err)
		return
	}
	for _, c := range clients {
		raw, err := os.ReadFile(c.ConfigPath)
		if err != nil {
			log.Printf("Hostname registration: read config for %s: %v", logutil.Sanitize(c.Name), err)
			continue
		}
		hostname, ok := wgctl.ExtractEndpointHostname(string(raw))
		if !ok {
			continue
		}
		detector.Register(c.ID, hostname, c.Name)
		log.Printf("Monitoring DDNS hostname %s for client %s", logutil.Sanitize(hostname), logutil.Sanitize(c.Name))
	}
}

// handshakeTick checks peer liveness for every stored client. Per-client
// failures are contained so one client cannot skip the rest of the tick.
func handshakeTick(tracker *wgmon.Tracker, store database.ClientStore) {
	clients, err := database.ListClients()
	if err != nil {
		log.Printf("Handshake check: list clients: %v", err)
		return
	}
	for _, c := range clients {
		iface := wgctl.InterfaceName(c.ConfigPath)
		tracker.CheckAndAlert(context.Background(), iface, c.Name, c.ID, store)
	}
}
