package config

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"path/filepath"
	"sync"
)

// JSONNodeConfig is used to persist a node's config artifact on disk in the
// form of a JSON file.
type JSONNodeConfig struct {
	l    sync.Mutex
	path string
}

// NewJSONNodeConfig creates a new JSONNodeConfig with reference to the node
// directory where the artifact resides.
func NewJSONNodeConfig(nodeDir string) *JSONNodeConfig {
	store := &JSONNodeConfig{
		path: filepath.Join(nodeDir, DefaultNodeConfigFile),
	}
	return store
}

// NodeConfig parses the underlying JSON file and returns the corresponding
// NodeConfig.
func (j *JSONNodeConfig) NodeConfig() (*NodeConfig, error) {
	j.l.Lock()
	defer j.l.Unlock()

	buf, err := ioutil.ReadFile(j.path)
	if err != nil {
		return nil, err
	}

	var conf NodeConfig
	dec := json.NewDecoder(bytes.NewReader(buf))
	if err := dec.Decode(&conf); err != nil {
		return nil, err
	}

	return &conf, nil
}

// Write persists a NodeConfig to a JSON file.
func (j *JSONNodeConfig) Write(conf *NodeConfig) error {
	j.l.Lock()
	defer j.l.Unlock()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "\t")
	if err := enc.Encode(conf); err != nil {
		return err
	}

	return ioutil.WriteFile(j.path, buf.Bytes(), 0755)
}
