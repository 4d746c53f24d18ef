package dummy

import (
	"encoding/json"
	"net"
	"sync"

	"github.com/sirupsen/logrus"
)

// announceTTL bounds how many hops an announcement is re-flooded.
const announceTTL = 8

const readBufSize = 1024

// announcement is the datagram flooded between nodes when a blob is
// announced.
type announcement struct {
	Blob string `json:"blob"`
	Addr string `json:"addr"`
	TTL  int    `json:"ttl"`
}

// Gossiper floods blob announcements to the node's bootstrap peers over UDP
// and folds received announcements into the table. The table's (blob, peer)
// dedup is what stops the flood: only first sightings are re-flooded.
type Gossiper struct {
	table      Table
	self       string
	knownNodes []string
	conn       *net.UDPConn
	logger     *logrus.Entry
	shutdownCh chan struct{}
	wg         sync.WaitGroup
}

// NewGossiper binds the node's DHT endpoint. The bootstrap entries are taken
// as written by the harness; duplicates and the node's own address are legal
// and need no filtering, since the dedup drops anything they would re-add.
func NewGossiper(conf *Config, table Table, logger *logrus.Entry) (*Gossiper, error) {
	addr, err := net.ResolveUDPAddr("udp", conf.Node.DHTAddr())
	if err != nil {
		return nil, err
	}

	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, err
	}

	return &Gossiper{
		table:      table,
		self:       conf.Node.DHTAddr(),
		knownNodes: conf.Node.KnownNodes,
		conn:       conn,
		logger:     logger,
		shutdownCh: make(chan struct{}),
	}, nil
}

// Run starts the receive loop.
func (g *Gossiper) Run() {
	g.wg.Add(1)
	go g.listen()
}

// Announce records this node as a holder of blob and floods the
// announcement to its bootstrap peers.
func (g *Gossiper) Announce(blob string) error {
	if _, err := g.table.Add(blob, g.self); err != nil {
		return err
	}

	g.logger.WithField("blob", blob).Debug("Announcing blob")

	return g.flood(announcement{
		Blob: blob,
		Addr: g.self,
		TTL:  announceTTL,
	})
}

func (g *Gossiper) listen() {
	defer g.wg.Done()

	buf := make([]byte, readBufSize)
	for {
		n, _, err := g.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-g.shutdownCh:
				return
			default:
				g.logger.WithField("error", err).Error("DHT endpoint read failed")
				continue
			}
		}

		var a announcement
		if err := json.Unmarshal(buf[:n], &a); err != nil {
			g.logger.WithField("error", err).Debug("Dropping malformed announcement")
			continue
		}

		g.receive(a)
	}
}

func (g *Gossiper) receive(a announcement) {
	inserted, err := g.table.Add(a.Blob, a.Addr)
	if err != nil {
		g.logger.WithField("error", err).Error("Failed to record announcement")
		return
	}

	if !inserted || a.TTL <= 0 {
		return
	}

	g.logger.WithFields(logrus.Fields{
		"blob": a.Blob,
		"addr": a.Addr,
	}).Debug("Relaying announcement")

	g.flood(announcement{
		Blob: a.Blob,
		Addr: a.Addr,
		TTL:  a.TTL - 1,
	})
}

func (g *Gossiper) flood(a announcement) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return err
	}

	for _, addr := range g.knownNodes {
		udpAddr, err := net.ResolveUDPAddr("udp", addr)
		if err != nil {
			g.logger.WithFields(logrus.Fields{
				"addr":  addr,
				"error": err,
			}).Error("Bad bootstrap entry")
			continue
		}

		if _, err := g.conn.WriteToUDP(payload, udpAddr); err != nil {
			g.logger.WithFields(logrus.Fields{
				"addr":  addr,
				"error": err,
			}).Error("Failed to send announcement")
		}
	}

	return nil
}

// Shutdown stops the receive loop and closes the DHT endpoint.
func (g *Gossiper) Shutdown() {
	close(g.shutdownCh)
	g.conn.Close()
	g.wg.Wait()
}
