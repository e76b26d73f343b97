package guard

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/raxe-ai/raxe-ce-sub006/internal/schema"
)

// Manifest describes a model bundle: which ONNX file to load, the sequence
// length it expects, and the output tensor plus label map for each head.
type Manifest struct {
	ModelID string                       `yaml:"model_id"`
	Version string                       `yaml:"version"`
	Model   string                       `yaml:"model"`
	SeqLen  int                          `yaml:"seq_len"`
	Heads   map[schema.HeadName]HeadSpec `yaml:"heads"`
}

// HeadSpec names one head's output tensor and label map file within the
// bundle. The harm head gets per-label sigmoid scoring; every other head
// gets a softmax over its labels.
type HeadSpec struct {
	Output   string `yaml:"output"`
	LabelMap string `yaml:"label_map"`
}

// LoadManifest reads and checks <bundleDir>/manifest.yaml.
func LoadManifest(bundleDir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(bundleDir, "manifest.yaml"))
	if err != nil {
		return nil, fmt.Errorf("read bundle manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode bundle manifest: %w", err)
	}
	if m.Model == "" {
		m.Model = "raxe_multihead.onnx"
	}
	if m.SeqLen <= 0 {
		m.SeqLen = 256
	}
	for _, head := range schema.AllHeadNames() {
		spec, ok := m.Heads[head]
		if !ok {
			return nil, fmt.Errorf("bundle manifest missing head %s", head)
		}
		if spec.Output == "" {
			return nil, fmt.Errorf("bundle manifest head %s missing output tensor name", head)
		}
	}
	return &m, nil
}

// labelMapPath resolves a head's label map file, defaulting to
// label_map_<head>.json.
func (m *Manifest) labelMapPath(bundleDir string, head schema.HeadName) string {
	spec := m.Heads[head]
	if spec.LabelMap != "" {
		return filepath.Join(bundleDir, filepath.FromSlash(spec.LabelMap))
	}
	return filepath.Join(bundleDir, "label_map_"+string(head)+".json")
}

// loadLabels reads a label map file: either a JSON array in id order or an
// id->label object.
func loadLabels(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil && len(arr) > 0 {
		return arr, nil
	}

	var byID map[string]string
	if err := json.Unmarshal(data, &byID); err != nil {
		return nil, err
	}
	out := make([]string, len(byID))
	for k, v := range byID {
		idx, convErr := strconv.Atoi(strings.TrimSpace(k))
		if convErr != nil {
			return nil, fmt.Errorf("invalid label index %q: %w", k, convErr)
		}
		if idx < 0 || idx >= len(byID) {
			return nil, fmt.Errorf("label index %d out of range", idx)
		}
		out[idx] = v
	}
	return out, nil
}

// resolveModelPath prefers a quantized int8 variant when the bundle ships
// one.
func resolveModelPath(bundleDir, model string) string {
	base := strings.TrimSuffix(model, filepath.Ext(model))
	int8Path := filepath.Join(bundleDir, base+".int8.onnx")
	if _, err := os.Stat(int8Path); err == nil {
		return int8Path
	}
	return filepath.Join(bundleDir, model)
}

// resolveSharedLibraryPath locates the onnxruntime shared library. The env
// var wins; otherwise common names and locations are probed.
func resolveSharedLibraryPath(bundleDir string) string {
	if env := strings.TrimSpace(os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH")); env != "" {
		return env
	}

	names := []string{
		"libonnxruntime.dylib",
		"onnxruntime.dylib",
		"libonnxruntime.so",
		"onnxruntime.so",
		"onnxruntime.dll",
	}
	dirs := []string{
		bundleDir,
		filepath.Join(bundleDir, "lib"),
		".",
		"/opt/homebrew/lib",
		"/usr/local/lib",
		"/usr/lib",
	}
	for _, dir := range dirs {
		for _, name := range names {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}
	}
	return ""
}
