// Package config defines the configuration for a blobmesh cluster.
//
// Regardless of how the harness is invoked, one-shot from the command line or
// through the interactive shell, it uses the ClusterSpec object defined in
// this package to store and forward configuration options. The spec pins down
// the workspace layout:
//
//  <workspace>/cluster.json // the spec as provisioned, read back by later invocations.
//  <workspace>/harness.log // harness logs, teed from stderr.
//  <workspace>/node<i>/blobd.json // the config artifact read by node i's daemon.
//  <workspace>/node<i>/blobd.pid // the pid recorded when node i was spawned.
//  <workspace>/node<i>/out.log // node i's combined stdout and stderr.
//  <workspace>/node<i>/{data,download,wallet} // the daemon's working directories.
package config
