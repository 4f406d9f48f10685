//go:build onnx
// +build onnx

package ner

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
	"go.uber.org/zap"
)

// OnnxClassifier implements TokenClassifier using ONNX Runtime (via yalue/onnxruntime_go).
type OnnxClassifier struct {
	session    *ort.DynamicAdvancedSession
	inputNames []string
	outputName string
	logger     *zap.Logger
	ready      bool
	mu         sync.RWMutex
}

// NewTokenClassifier initializes the ONNX Runtime backend. Requires build tag 'onnx'.
func NewTokenClassifier(logger *zap.Logger, modelPath string) TokenClassifier {
	if shlib := os.Getenv("ONNXRUNTIME_SHARED_LIB"); shlib != "" {
		ort.SetSharedLibraryPath(shlib)
	} else if shlib := os.Getenv("ORT_SHLIB"); shlib != "" {
		ort.SetSharedLibraryPath(shlib)
	}

	if err := ort.InitializeEnvironment(); err != nil {
		logger.Error("ONNX Runtime environment init failed", zap.Error(err))
		return nil
	}

	inputsInfo, outputsInfo, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		logger.Error("Failed to inspect ONNX model IO", zap.Error(err), zap.String("model", modelPath))
		return nil
	}

	preferredInputs := []string{"input_ids", "attention_mask", "token_type_ids"}
	available := map[string]string{}
	for _, ii := range inputsInfo {
		available[strings.ToLower(ii.Name)] = ii.Name
	}
	var inputNames []string
	for _, name := range preferredInputs {
		if declared, ok := available[name]; ok {
			inputNames = append(inputNames, declared)
		}
	}
	if len(inputNames) == 0 && len(inputsInfo) > 0 {
		sorted := make([]string, 0, len(inputsInfo))
		for _, ii := range inputsInfo {
			sorted = append(sorted, ii.Name)
		}
		sort.Strings(sorted)
		inputNames = sorted
	}

	if len(outputsInfo) == 0 {
		logger.Error("ONNX model reports no outputs", zap.String("model", modelPath))
		return nil
	}
	// token classification exports name the output "logits"
	outputName := outputsInfo[0].Name
	for _, oi := range outputsInfo {
		if strings.EqualFold(oi.Name, "logits") {
			outputName = oi.Name
		}
	}

	sess, err := ort.NewDynamicAdvancedSession(modelPath, inputNames, []string{outputName}, nil)
	if err != nil {
		logger.Error("ONNX Runtime session creation failed", zap.Error(err), zap.String("model", modelPath))
		return nil
	}

	logger.Info("ONNX Runtime NER backend ready", zap.String("model", modelPath), zap.Strings("inputs", inputNames), zap.String("output", outputName))
	return &OnnxClassifier{session: sess, inputNames: inputNames, outputName: outputName, logger: logger, ready: true}
}

// IsReady reports whether the backend is initialized.
func (b *OnnxClassifier) IsReady() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.ready && b.session != nil
}

// Close releases session and environment resources.
func (b *OnnxClassifier) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.session != nil {
		b.session.Destroy()
		b.session = nil
	}
	ort.DestroyEnvironment()
	b.ready = false
	return nil
}

// Classify runs inference and returns the argmax label per position.
func (b *OnnxClassifier) Classify(ctx context.Context, batch []Window) ([][]int, error) {
	if !b.IsReady() {
		return nil, fmt.Errorf("onnx backend not ready")
	}
	if len(batch) == 0 {
		return [][]int{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n := len(batch)
	seqLen := len(batch[0].InputIDs)

	inputIDs := make([]int64, 0, n*seqLen)
	attention := make([]int64, 0, n*seqLen)
	tokenTypes := make([]int64, 0, n*seqLen)
	for _, w := range batch {
		if len(w.InputIDs) != seqLen {
			return nil, fmt.Errorf("ragged batch: window has %d ids, want %d", len(w.InputIDs), seqLen)
		}
		inputIDs = append(inputIDs, w.InputIDs...)
		attention = append(attention, w.AttentionMask...)
		tokenTypes = append(tokenTypes, w.TokenTypeIDs...)
	}

	shape := ort.NewShape(int64(n), int64(seqLen))
	idsTensor, err := ort.NewTensor[int64](shape, inputIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to create input_ids tensor: %w", err)
	}
	defer idsTensor.Destroy()
	maskTensor, err := ort.NewTensor[int64](shape, attention)
	if err != nil {
		return nil, fmt.Errorf("failed to create attention_mask tensor: %w", err)
	}
	defer maskTensor.Destroy()
	typeTensor, err := ort.NewTensor[int64](shape, tokenTypes)
	if err != nil {
		return nil, fmt.Errorf("failed to create token_type_ids tensor: %w", err)
	}
	defer typeTensor.Destroy()

	inputs := make([]ort.Value, 0, len(b.inputNames))
	for _, rawName := range b.inputNames {
		name := strings.ToLower(rawName)
		switch {
		case strings.Contains(name, "mask") || strings.Contains(name, "attention"):
			inputs = append(inputs, maskTensor)
		case strings.Contains(name, "token_type") || strings.Contains(name, "segment"):
			inputs = append(inputs, typeTensor)
		default:
			inputs = append(inputs, idsTensor)
		}
	}

	outputs := make([]ort.Value, 1)
	if err := b.session.Run(inputs, outputs); err != nil {
		return nil, fmt.Errorf("onnx run failed: %w", err)
	}
	if outputs[0] == nil {
		return nil, fmt.Errorf("onnx returned no outputs")
	}
	defer outputs[0].Destroy()

	outTensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected output type (want float32 tensor)")
	}
	data := outTensor.GetData()
	outShape := outTensor.GetShape()
	if len(outShape) != 3 {
		return nil, fmt.Errorf("unsupported output shape %v (want [batch, seq, labels])", outShape)
	}
	seq, numLabels := int(outShape[1]), int(outShape[2])
	if len(data) != n*seq*numLabels {
		return nil, fmt.Errorf("unexpected flat data length %d for shape %v", len(data), outShape)
	}

	res := make([][]int, n)
	for i := 0; i < n; i++ {
		res[i] = make([]int, seq)
		for s := 0; s < seq; s++ {
			offset := (i*seq + s) * numLabels
			best := 0
			for l := 1; l < numLabels; l++ {
				if data[offset+l] > data[offset+best] {
					best = l
				}
			}
			res[i][s] = best
		}
	}

	return res, nil
}
