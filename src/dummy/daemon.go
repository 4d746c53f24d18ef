package dummy

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/blobmesh/blobmesh/src/config"
	"github.com/sirupsen/logrus"
)

// Daemon is the stand-in blobd node: an announcement table, a UDP gossip
// endpoint, and an HTTP control plane, wired from the config artifact the
// harness wrote into its datadir.
type Daemon struct {
	conf     *Config
	logger   *logrus.Entry
	table    Table
	gossiper *Gossiper
	service  *Service

	startTime  time.Time
	sigCh      chan os.Signal
	shutdownCh chan struct{}

	shutdownLock sync.Mutex
	stopped      bool
}

// NewDaemon returns an uninitialised Daemon. Call Init before Run.
func NewDaemon(conf *Config) *Daemon {
	return &Daemon{
		conf:       conf,
		logger:     conf.Logger().WithField("component", "daemon"),
		sigCh:      make(chan os.Signal, 1),
		shutdownCh: make(chan struct{}),
	}
}

func (d *Daemon) initTable() error {
	if !d.conf.Store {
		d.table = NewInmemTable()
		return nil
	}

	d.logger.WithField("path", d.conf.DatabaseDir).Debug("Opening announcement table")

	table, err := LoadOrCreateBadgerTable(d.conf.DatabaseDir, d.conf.Logger())
	if err != nil {
		return err
	}
	d.table = table

	return nil
}

func (d *Daemon) initGossip() error {
	if d.conf.Node.DHTPort == 0 {
		return fmt.Errorf("dht_node_port is not set; is %s missing?",
			filepath.Join(d.conf.DataDir, config.DefaultNodeConfigFile))
	}

	gossiper, err := NewGossiper(d.conf, d.table, d.conf.Logger().WithField("component", "gossip"))
	if err != nil {
		return err
	}
	d.gossiper = gossiper

	return nil
}

func (d *Daemon) initService() error {
	if d.conf.Node.APIPort == 0 {
		return fmt.Errorf("api_port is not set; is %s missing?",
			filepath.Join(d.conf.DataDir, config.DefaultNodeConfigFile))
	}

	d.service = NewService(d.conf.Node.APIAddr(), d, d.conf.Logger().WithField("component", "service"))

	return nil
}

// Init initialises the daemon's components in dependency order.
func (d *Daemon) Init() error {
	if err := d.initTable(); err != nil {
		d.logger.WithError(err).Error("daemon.initTable")
		return err
	}

	if err := d.initGossip(); err != nil {
		d.logger.WithError(err).Error("daemon.initGossip")
		return err
	}

	if err := d.initService(); err != nil {
		d.logger.WithError(err).Error("daemon.initService")
		return err
	}

	signal.Notify(d.sigCh, syscall.SIGINT, syscall.SIGTERM)

	return nil
}

// Run serves the gossip endpoint and the control plane until a TERM or INT
// signal arrives, then shuts down cleanly.
func (d *Daemon) Run() {
	d.startTime = time.Now()

	d.gossiper.Run()
	go d.service.Serve()

	d.logger.WithFields(logrus.Fields{
		"dht_addr": d.conf.Node.DHTAddr(),
		"api_addr": d.conf.Node.APIAddr(),
		"store":    d.conf.Store,
	}).Info("Daemon running")

	select {
	case sig := <-d.sigCh:
		d.logger.WithField("signal", sig).Debug("Caught signal")
	case <-d.shutdownCh:
	}

	d.Shutdown()
}

// Shutdown stops the control plane first, so no new commands come in, then
// the gossip endpoint, and closes the table last. Safe to call more than
// once.
func (d *Daemon) Shutdown() {
	d.shutdownLock.Lock()
	defer d.shutdownLock.Unlock()

	if d.stopped {
		return
	}
	d.stopped = true
	close(d.shutdownCh)

	d.logger.Info("Shutting down")

	if d.service != nil {
		d.service.Shutdown()
	}

	if d.gossiper != nil {
		d.gossiper.Shutdown()
	}

	if d.table != nil {
		d.table.Close()
	}
}

// Stats returns the daemon's vitals as a flat string map.
func (d *Daemon) Stats() map[string]string {
	blobs, _ := d.table.Blobs()

	uptime := time.Duration(0)
	if !d.startTime.IsZero() {
		uptime = time.Since(d.startTime)
	}

	return map[string]string{
		"dht_addr":    d.conf.Node.DHTAddr(),
		"api_addr":    d.conf.Node.APIAddr(),
		"known_nodes": strconv.Itoa(len(d.conf.Node.KnownNodes)),
		"blobs":       strconv.Itoa(len(blobs)),
		"store":       strconv.FormatBool(d.conf.Store),
		"uptime":      uptime.String(),
	}
}
