package config

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"path/filepath"
	"sync"
)

// JSONClusterSpec persists the cluster spec on disk, so that one-shot harness
// invocations recover the shape of a previously provisioned cluster.
type JSONClusterSpec struct {
	l    sync.Mutex
	path string
}

// NewJSONClusterSpec creates a new JSONClusterSpec with reference to the
// workspace where the cluster file resides.
func NewJSONClusterSpec(workspace string) *JSONClusterSpec {
	store := &JSONClusterSpec{
		path: filepath.Join(workspace, DefaultClusterFile),
	}
	return store
}

// Spec parses the underlying JSON file and returns the corresponding
// ClusterSpec.
func (j *JSONClusterSpec) Spec() (*ClusterSpec, error) {
	j.l.Lock()
	defer j.l.Unlock()

	buf, err := ioutil.ReadFile(j.path)
	if err != nil {
		return nil, err
	}

	var spec ClusterSpec
	dec := json.NewDecoder(bytes.NewReader(buf))
	if err := dec.Decode(&spec); err != nil {
		return nil, err
	}

	return &spec, nil
}

// Write persists a ClusterSpec to a JSON file.
func (j *JSONClusterSpec) Write(spec *ClusterSpec) error {
	j.l.Lock()
	defer j.l.Unlock()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "\t")
	if err := enc.Encode(spec); err != nil {
		return err
	}

	return ioutil.WriteFile(j.path, buf.Bytes(), 0755)
}
