package config

import (
	"encoding/binary"
	"fmt"

	k8syaml "sigs.k8s.io/yaml"
	"gopkg.in/yaml.v3"
)

// Serializer is the pluggable capability a Node is constructed with
// (spec.md §9: "a capability injected at node construction; both sides of a
// service must agree"). Both implementations use the same field names, so a
// stream written by one may still parse under the other; the open protocol
// therefore also compares the stamped serializer name and reports any
// disagreement as on-disk corruption.
type Serializer interface {
	// Name identifies the wire format. It is stamped into the static
	// descriptor, and OpenStaticDescriptor rejects a descriptor whose stamped
	// name differs from its own serializer's.
	Name() string
	Encode(cfg WireStaticConfig) ([]byte, error)
	Decode(data []byte) (WireStaticConfig, error)
}

// YAML is the default serializer, using gopkg.in/yaml.v3 directly against
// Go struct tags.
type yamlSerializer struct{}

// YAML returns the yaml.v3-backed Serializer.
func YAML() Serializer { return yamlSerializer{} }

func (yamlSerializer) Name() string { return "yaml.v3" }

func (yamlSerializer) Encode(cfg WireStaticConfig) ([]byte, error) {
	return yaml.Marshal(cfg)
}

func (yamlSerializer) Decode(data []byte) (WireStaticConfig, error) {
	var cfg WireStaticConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return WireStaticConfig{}, err
	}
	return cfg, nil
}

// k8sYAMLSerializer round-trips through sigs.k8s.io/yaml, which marshals via
// the struct's `json` tags instead of `yaml` tags. It exists so a node can
// be built to produce bytes that are also valid JSON-over-YAML for openers
// built against JSON-oriented tooling, per SPEC_FULL.md's domain stack.
type k8sYAMLSerializer struct{}

// K8sYAML returns the sigs.k8s.io/yaml-backed Serializer.
func K8sYAML() Serializer { return k8sYAMLSerializer{} }

func (k8sYAMLSerializer) Name() string { return "sigs.k8s.io/yaml" }

func (k8sYAMLSerializer) Encode(cfg WireStaticConfig) ([]byte, error) {
	return k8syaml.Marshal(cfg)
}

func (k8sYAMLSerializer) Decode(data []byte) (WireStaticConfig, error) {
	var cfg WireStaticConfig
	if err := k8syaml.Unmarshal(data, &cfg); err != nil {
		return WireStaticConfig{}, err
	}
	return cfg, nil
}

// ErrCorrupted is returned by Frame/Unframe when the static descriptor's
// bytes cannot be interpreted at all, including when the length prefix
// overruns the buffer — the catch-all for "serializer mismatch" and actual
// bit rot alike, since the two are indistinguishable from outside (spec.md
// §9).
var ErrCorrupted = fmt.Errorf("static descriptor payload is corrupted or was written with an incompatible serializer")

// Frame length-prefixes an already-encoded StaticConfig payload for
// placement in the static descriptor (spec.md §6 layout).
func Frame(encoded []byte) []byte {
	out := make([]byte, 4+len(encoded))
	binary.BigEndian.PutUint32(out[:4], uint32(len(encoded)))
	copy(out[4:], encoded)
	return out
}

// Unframe reverses Frame, validating the length prefix against the actual
// buffer size before handing the payload to a Serializer.
func Unframe(raw []byte) ([]byte, error) {
	if len(raw) < 4 {
		return nil, ErrCorrupted
	}
	n := binary.BigEndian.Uint32(raw[:4])
	if uint64(n)+4 > uint64(len(raw)) {
		return nil, ErrCorrupted
	}
	return raw[4 : 4+n], nil
}
