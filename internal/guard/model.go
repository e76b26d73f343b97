package guard

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/raxe-ai/raxe-ce-sub006/internal/schema"
)

// Model wraps one ONNX session with five output tensors, one per head.
// Session access is serialized; the tensors are reused across runs.
type Model struct {
	manifest  *Manifest
	session   *ort.AdvancedSession
	tokenizer *Tokenizer
	labels    map[schema.HeadName][]string

	inputIDs      *ort.Tensor[int64]
	attentionMask *ort.Tensor[int64]
	outputs       map[schema.HeadName]*ort.Tensor[float32]

	mu sync.Mutex
}

// LoadModel initializes the ONNX runtime, tokenizer, label maps, and the
// multi-head session from a bundle directory.
func LoadModel(bundleDir string) (*Model, error) {
	if bundleDir == "" {
		return nil, errors.New("bundleDir is empty")
	}

	manifest, err := LoadManifest(bundleDir)
	if err != nil {
		return nil, err
	}

	libPath := resolveSharedLibraryPath(bundleDir)
	if libPath == "" {
		return nil, errors.New("onnxruntime shared library not found; set ONNXRUNTIME_SHARED_LIBRARY_PATH or install the runtime")
	}
	ort.SetSharedLibraryPath(libPath)
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("initialize onnxruntime: %w", err)
		}
	}

	modelPath := resolveModelPath(bundleDir, manifest.Model)
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("model file missing at %s: %w", modelPath, err)
	}

	tokenizer, err := LoadTokenizer(filepath.Join(bundleDir, "tokenizer", "vocab.txt"))
	if err != nil {
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}

	labels := make(map[schema.HeadName][]string, 5)
	for _, head := range schema.AllHeadNames() {
		l, err := loadLabels(manifest.labelMapPath(bundleDir, head))
		if err != nil {
			return nil, fmt.Errorf("load %s labels: %w", head, err)
		}
		if len(l) == 0 {
			return nil, fmt.Errorf("head %s label map is empty", head)
		}
		labels[head] = l
	}

	inputShape := ort.NewShape(1, int64(manifest.SeqLen))
	inputIDs, err := ort.NewEmptyTensor[int64](inputShape)
	if err != nil {
		return nil, fmt.Errorf("allocate input_ids tensor: %w", err)
	}
	attnMask, err := ort.NewEmptyTensor[int64](inputShape)
	if err != nil {
		return nil, fmt.Errorf("allocate attention_mask tensor: %w", err)
	}

	outputNames := make([]string, 0, 5)
	outputValues := make([]ort.Value, 0, 5)
	outputs := make(map[schema.HeadName]*ort.Tensor[float32], 5)
	for _, head := range schema.AllHeadNames() {
		out, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(len(labels[head]))))
		if err != nil {
			return nil, fmt.Errorf("allocate %s output tensor: %w", head, err)
		}
		outputs[head] = out
		outputNames = append(outputNames, manifest.Heads[head].Output)
		outputValues = append(outputValues, out)
	}

	session, err := ort.NewAdvancedSession(
		modelPath,
		[]string{"input_ids", "attention_mask"},
		outputNames,
		[]ort.Value{inputIDs, attnMask},
		outputValues,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("create onnx session: %w", err)
	}

	return &Model{
		manifest:      manifest,
		session:       session,
		tokenizer:     tokenizer,
		labels:        labels,
		inputIDs:      inputIDs,
		attentionMask: attnMask,
		outputs:       outputs,
	}, nil
}

// Infer runs the model and converts each head's logits into a HeadOutput:
// softmax for the single-label heads, per-label sigmoid for harm.
func (m *Model) Infer(ctx context.Context, text string) ([]schema.HeadOutput, error) {
	if m == nil || m.session == nil {
		return nil, errors.New("guard model not initialized")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	inputIDs, attn := m.tokenizer.Encode(text, m.manifest.SeqLen)

	m.mu.Lock()
	defer m.mu.Unlock()

	copy(m.inputIDs.GetData(), inputIDs)
	copy(m.attentionMask.GetData(), attn)

	if err := m.session.Run(); err != nil {
		return nil, fmt.Errorf("onnx run: %w", err)
	}

	results := make([]schema.HeadOutput, 0, 5)
	for _, head := range schema.AllHeadNames() {
		logits := m.outputs[head].GetData()
		labels := m.labels[head]
		if len(logits) < len(labels) {
			return nil, fmt.Errorf("%w: head %s produced %d logits for %d labels",
				schema.ErrInvalidHeadOutput, head, len(logits), len(labels))
		}

		var probs []float64
		if head.MultiLabel() {
			probs = sigmoidAll(logits[:len(labels)])
		} else {
			probs = softmax(logits[:len(labels)])
		}

		out := buildHeadOutput(head, labels, probs)
		if err := out.Validate(); err != nil {
			return nil, err
		}
		results = append(results, out)
	}
	return results, nil
}

// Degraded is always false for the real model.
func (m *Model) Degraded() bool { return false }

// Status reports the bundle identity.
func (m *Model) Status() Status {
	return Status{
		ModelID:      m.manifest.ModelID,
		ModelVersion: m.manifest.Version,
	}
}

// Warmup runs one inference so the first scan does not pay session
// initialization costs.
func (m *Model) Warmup(ctx context.Context) error {
	_, err := m.Infer(ctx, "warmup")
	return err
}

func buildHeadOutput(head schema.HeadName, labels []string, probs []float64) schema.HeadOutput {
	out := schema.HeadOutput{
		Head:          head,
		Probabilities: make([]schema.LabelScore, len(labels)),
	}
	best := -1.0
	for i, label := range labels {
		out.Probabilities[i] = schema.LabelScore{Label: label, Probability: probs[i]}
		if probs[i] > best {
			best = probs[i]
			out.PredictedLabel = label
		}
	}
	out.Confidence = best
	if head == schema.HeadBinary {
		out.Confidence = out.ThreatProbability()
	}
	return out
}

func softmax(logits []float32) []float64 {
	if len(logits) == 0 {
		return nil
	}
	maxVal := logits[0]
	for _, v := range logits[1:] {
		if v > maxVal {
			maxVal = v
		}
	}
	sum := 0.0
	out := make([]float64, len(logits))
	for i, v := range logits {
		out[i] = math.Exp(float64(v - maxVal))
		sum += out[i]
	}
	if sum == 0 {
		return out
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

func sigmoidAll(logits []float32) []float64 {
	out := make([]float64, len(logits))
	for i, v := range logits {
		out[i] = 1.0 / (1.0 + math.Exp(-float64(v)))
	}
	return out
}
