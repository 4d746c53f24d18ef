// Package dummy implements a stand-in for the blobd node daemon. It is used
// to exercise the harness without a production daemon: it reads the same
// config artifact, serves the same control-plane methods, and propagates
// blob announcements between nodes by flooding them over UDP to its
// bootstrap peers.
//
// The dummy daemon maintains an announcement table mapping blob hashes to
// the DHT addresses of the nodes that announced them. The table lives in
// memory by default, or in a Badger database under the node's datadir when
// the daemon runs with --store, in which case it survives restarts.
package dummy
