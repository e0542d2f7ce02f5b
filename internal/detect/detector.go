package detect

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ErrNoDetections is returned when the model produces no box above the
// confidence threshold.
var ErrNoDetections = errors.New("no detections above confidence threshold")

// Detection is one localized finding in the source image.
type Detection struct {
	Label string  `json:"label"`
	Index int     `json:"class_index"`
	Score float32 `json:"score"`
	Box   Box     `json:"box"`
}

// Result carries the findings plus the annotated copy of the input image.
type Result struct {
	Detections []Detection
	Annotated  AnnotatedImage
}

// Config mirrors the detector section of the service configuration.
type Config struct {
	ModelPath           string
	LabelsPath          string
	ONNXSharedLibPath   string
	ConfidenceThreshold float32
	IOUThreshold        float32
}

// Detector runs a pre-trained fundus lesion model (YOLO-style ONNX
// export) and maps its output rows to labeled boxes.
type Detector struct {
	mu sync.Mutex

	cfg Config

	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
	labels  []string

	inputW  int
	inputH  int
	rowSize int
	numRows int

	inited bool
}

// NewDetector creates a detector that lazily loads the ONNX session on
// first use.
func NewDetector(cfg Config) *Detector {
	if cfg.ConfidenceThreshold <= 0 {
		cfg.ConfidenceThreshold = 0.35
	}
	if cfg.IOUThreshold <= 0 {
		cfg.IOUThreshold = 0.45
	}
	return &Detector{cfg: cfg}
}

// Ready reports whether the model artifact is present on disk without
// forcing a session load.
func (d *Detector) Ready() error {
	if _, err := os.Stat(d.cfg.ModelPath); err != nil {
		return fmt.Errorf("detector model unavailable: %w", err)
	}
	return nil
}

func (d *Detector) initOnce() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.inited {
		return nil
	}

	if d.cfg.ONNXSharedLibPath != "" {
		ort.SetSharedLibraryPath(d.cfg.ONNXSharedLibPath)
	}

	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("onnx init environment: %w", err)
	}

	labels, err := loadLabels(d.cfg.LabelsPath)
	if err != nil {
		return fmt.Errorf("load labels: %w", err)
	}
	d.labels = labels

	inputs, outputs, err := ort.GetInputOutputInfo(d.cfg.ModelPath)
	if err != nil {
		return fmt.Errorf("onnx get input/output info: %w", err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return fmt.Errorf("onnx model has no inputs or outputs")
	}
	inputShape := inputs[0].Dimensions
	outputShape := outputs[0].Dimensions

	// NCHW input, [1, rows, 5+classes] output.
	if len(inputShape) != 4 || len(outputShape) != 3 {
		return fmt.Errorf("unexpected model shapes: input %v output %v", inputShape, outputShape)
	}
	d.inputH = int(inputShape[2])
	d.inputW = int(inputShape[3])
	d.numRows = int(outputShape[1])
	d.rowSize = int(outputShape[2])
	if d.rowSize < 6 {
		return fmt.Errorf("output row size %d too small for box + class scores", d.rowSize)
	}
	if got, want := d.rowSize-5, len(labels); got != want {
		return fmt.Errorf("model has %d classes but labels file lists %d", got, want)
	}

	inputTensor, err := ort.NewEmptyTensor[float32](inputShape)
	if err != nil {
		return fmt.Errorf("onnx new input tensor: %w", err)
	}
	d.input = inputTensor

	outputTensor, err := ort.NewEmptyTensor[float32](outputShape)
	if err != nil {
		inputTensor.Destroy()
		return fmt.Errorf("onnx new output tensor: %w", err)
	}
	d.output = outputTensor

	inputNames := make([]string, len(inputs))
	for i := range inputs {
		inputNames[i] = inputs[i].Name
	}
	outputNames := make([]string, len(outputs))
	for i := range outputs {
		outputNames[i] = outputs[i].Name
	}

	session, err := ort.NewAdvancedSession(d.cfg.ModelPath, inputNames, outputNames,
		[]ort.Value{d.input}, []ort.Value{d.output}, nil)
	if err != nil {
		outputTensor.Destroy()
		inputTensor.Destroy()
		return fmt.Errorf("onnx new session: %w", err)
	}
	d.session = session
	d.inited = true
	return nil
}

// Detect decodes the image, letterboxes it to the model input, runs
// inference and returns the thresholded, NMS-filtered findings along
// with an annotated copy of the original image.
func (d *Detector) Detect(imageData []byte) (*Result, error) {
	if err := d.initOnce(); err != nil {
		return nil, err
	}

	img, err := decodeImage(imageData)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	lb := newLetterbox(img.Bounds().Dx(), img.Bounds().Dy(), d.inputW, d.inputH)
	inputData := preprocess(img, lb)

	d.mu.Lock()
	inData := d.input.GetData()
	if len(inData) != len(inputData) {
		d.mu.Unlock()
		return nil, fmt.Errorf("input tensor size %d != preprocessed %d", len(inData), len(inputData))
	}
	copy(inData, inputData)
	err = d.session.Run()
	if err != nil {
		d.mu.Unlock()
		return nil, fmt.Errorf("onnx run: %w", err)
	}
	outData := make([]float32, len(d.output.GetData()))
	copy(outData, d.output.GetData())
	d.mu.Unlock()

	detections := postprocess(outData, d.rowSize, d.labels, d.cfg.ConfidenceThreshold, d.cfg.IOUThreshold, lb)
	if len(detections) == 0 {
		return nil, ErrNoDetections
	}

	return &Result{
		Detections: detections,
		Annotated:  annotate(img, detections),
	}, nil
}

// Close releases the ONNX session and tensors.
func (d *Detector) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.inited {
		return
	}
	d.session.Destroy()
	d.output.Destroy()
	d.input.Destroy()
	d.inited = false
}

func loadLabels(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var labels []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line != "" {
			labels = append(labels, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return labels, nil
}
