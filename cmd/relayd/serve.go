package main

import (
	"bufio"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/nabbar/golib/certificates"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/relayd/relayd/internal/config"
	"github.com/relayd/relayd/internal/connection"
	"github.com/relayd/relayd/internal/connid"
	"github.com/relayd/relayd/internal/dispatch"
	"github.com/relayd/relayd/internal/history"
	"github.com/relayd/relayd/internal/logging"
	"github.com/relayd/relayd/internal/metrics"
	"github.com/relayd/relayd/internal/persist"
	"github.com/relayd/relayd/internal/ratelimit"
	"github.com/relayd/relayd/internal/store"
	"github.com/relayd/relayd/internal/supervise"
)

// serveFlags mirrors §6's CLI detail: every flag overrides the matching
// config-file directive when set.
type serveFlags struct {
	configPath   string
	listen       string
	tlsCert      string
	tlsKey       string
	serverName   string
	adminContact string
	motdFile     string
	dbPath       string
	adminListen  string
	logLevel     string
}

func newServeCmd() *cobra.Command {
	var f serveFlags
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "run the relayd server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), f)
		},
	}
	cmd.Flags().StringVar(&f.configPath, "config", "", "path to the relayd config file")
	cmd.Flags().StringVar(&f.listen, "listen", "", "override the config file's listen address")
	cmd.Flags().StringVar(&f.tlsCert, "tls-cert", "", "override the config file's TLS certificate path")
	cmd.Flags().StringVar(&f.tlsKey, "tls-key", "", "override the config file's TLS key path")
	cmd.Flags().StringVar(&f.serverName, "server-name", "", "override the config file's server name")
	cmd.Flags().StringVar(&f.adminContact, "admin-contact", "", "override the config file's admin contact")
	cmd.Flags().StringVar(&f.motdFile, "motd-file", "", "override the config file's MOTD file")
	cmd.Flags().StringVar(&f.dbPath, "db", "", "optional sqlite database path enabling snapshot/restore")
	cmd.Flags().StringVar(&f.adminListen, "admin-listen", "127.0.0.1:9667", "address serving the /metrics handler")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	return cmd
}

func applyFlagOverrides(cfg *config.Config, f serveFlags) {
	if f.listen != "" {
		cfg.Listen = f.listen
	}
	if f.serverName != "" {
		cfg.ServerName = f.serverName
	}
	if f.adminContact != "" {
		cfg.AdminContact = f.adminContact
	}
	if f.motdFile != "" {
		cfg.MOTDFile = f.motdFile
	}
	if f.tlsCert != "" || f.tlsKey != "" {
		if cfg.TLS == nil {
			cfg.TLS = &config.TLS{}
		}
		if f.tlsCert != "" {
			cfg.TLS.Cert = f.tlsCert
		}
		if f.tlsKey != "" {
			cfg.TLS.Key = f.tlsKey
		}
	}
}

func runServe(ctx context.Context, f serveFlags) error {
	cfg := config.Default()
	if f.configPath != "" {
		loaded, err := config.Load(f.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	applyFlagOverrides(&cfg, f)

	log := logging.New(f.logLevel, os.Stderr)
	entry := log.WithField("component", "relayd")

	motd, err := loadMOTD(cfg.MOTDFile)
	if err != nil {
		entry.WithError(err).Warn("motd file unreadable, continuing without one")
	}

	m := metrics.New()
	st := store.New()
	hist := history.NewBuffer(cfg.History.Limit, cfg.History.MaxAge)
	supervisor := supervise.New(entry)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	info := dispatch.Info{
		ServerName:   cfg.ServerName,
		Version:      buildVersion,
		AdminContact: cfg.AdminContact,
		AdminName:    cfg.AdminName,
		MOTD:         motd,
	}
	d := dispatch.New(runCtx, st, hist, supervisor, m, entry, info)

	var snapshotter *persist.Snapshotter
	if f.dbPath != "" {
		snapshotter, err = openSnapshotter(f.dbPath)
		if err != nil {
			return fmt.Errorf("relayd: open snapshot store: %w", err)
		}
		restoreChannels(d, snapshotter, entry)
	}

	ln, err := newListener(cfg)
	if err != nil {
		return err
	}
	entry.WithField("addr", ln.Addr().String()).Info("listening")

	adminSrv := startAdminServer(f.adminListen, m, entry)

	supervisor.Go("accept-loop", func() {
		acceptLoop(runCtx, ln, cfg, motd, st, d, m, entry, supervisor)
	})

	if snapshotter != nil {
		supervisor.Go("snapshot-loop", func() {
			snapshotLoop(runCtx, snapshotter, st, entry)
		})
	}

	waitForSignal(entry)

	entry.Info("shutting down")
	cancel()
	ln.Close()

	if adminSrv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = adminSrv.Shutdown(shutdownCtx)
		shutdownCancel()
	}

	if snapshotter != nil {
		saveCtx, saveCancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := snapshotter.Save(saveCtx, st); err != nil {
			entry.WithError(err).Error("final snapshot save failed")
		}
		saveCancel()
	}

	supervisor.Wait()
	return nil
}

// newListener opens the plain TCP listener, wrapping it in TLS (via
// nabbar-golib's certificates package) when the config carries a tls{}
// block.
func newListener(cfg config.Config) (net.Listener, error) {
	ln, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return nil, fmt.Errorf("relayd: listen %s: %w", cfg.Listen, err)
	}

	if cfg.TLS == nil {
		return ln, nil
	}

	tlsCfg := certificates.New()
	if err := tlsCfg.AddCertificatePairFile(cfg.TLS.Key, cfg.TLS.Cert); err != nil {
		ln.Close()
		return nil, fmt.Errorf("relayd: load TLS certificate pair: %w", err)
	}

	return tls.NewListener(ln, tlsCfg.TlsConfig(cfg.ServerName)), nil
}

// acceptLoop accepts connections until runCtx is cancelled, handing each
// one to its own supervised connection actor (§4.4).
func acceptLoop(runCtx context.Context, ln net.Listener, cfg config.Config, motd []string, st *store.Store, router connection.Router, m *metrics.Metrics, log *logrus.Entry, supervisor *supervise.Group) {
	for {
		nc, err := ln.Accept()
		if err != nil {
			select {
			case <-runCtx.Done():
				return
			default:
			}
			log.WithError(err).Warn("accept error")
			continue
		}

		id := connid.New()
		c := connection.New(id, nc, cfg.ServerName, st, router, log)
		c.SetMetrics(m)
		c.SetLimiter(ratelimit.New(cfg.RateLimit.Capacity, cfg.RateLimit.RefillPerSecond))
		c.SetMOTD(motd)
		c.SetVersion(buildVersion)

		m.SetConnections(st.ConnectionCount() + 1)
		supervisor.Go("conn:"+id.String(), func() {
			c.Run(runCtx)
			m.SetConnections(st.ConnectionCount())
		})
	}
}

// loadMOTD reads path into one line per row, matching the registration
// sequence's RPL_MOTD burst. A missing path is not an error: it simply
// yields ERR_NOMOTD.
func loadMOTD(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	return lines, scanner.Err()
}

// startAdminServer exposes /metrics over a separate listener per §4.14,
// so the relay port itself never speaks HTTP.
func startAdminServer(addr string, m *metrics.Metrics, log *logrus.Entry) *http.Server {
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Warn("admin server stopped")
		}
	}()
	log.WithField("addr", addr).Info("serving /metrics")
	return srv
}

func openSnapshotter(path string) (*persist.Snapshotter, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return persist.New(db)
}

// restoreChannels seeds the dispatcher's channels from the persisted
// store before the listener starts accepting connections (§4.15).
func restoreChannels(d *dispatch.Dispatcher, snapshotter *persist.Snapshotter, log *logrus.Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	data, err := snapshotter.Restore(ctx)
	if err != nil {
		log.WithError(err).Warn("restore from snapshot store failed, starting empty")
		return
	}

	for _, rc := range data.Channels {
		hasLimit := rc.Limit > 0
		changes := persist.ModeLettersToChanges(rc.Modes, rc.Key, rc.Limit, hasLimit)
		d.SeedChannel(rc.Name, rc.Topic, rc.TopicSetter, rc.TopicTime, changes, rc.Bans)
	}
	log.WithField("channels", len(data.Channels)).Info("restored channels from snapshot store")
}

// snapshotLoop periodically persists the live store, independent of the
// final shutdown-time save, so a crash between saves loses at most one
// interval's worth of state.
func snapshotLoop(ctx context.Context, snapshotter *persist.Snapshotter, st *store.Store, log *logrus.Entry) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			saveCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			if err := snapshotter.Save(saveCtx, st); err != nil {
				log.WithError(err).Error("periodic snapshot save failed")
			}
			cancel()
		}
	}
}

func waitForSignal(log *logrus.Entry) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh
	log.WithField("signal", sig.String()).Info("received shutdown signal")
}
