package model

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/setanarut/colorizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// shiftModel predicts a = L and b = 1-L through a 1x1 convolution.
func shiftModel(t *testing.T, size int) *Model {
	t.Helper()
	m, err := New("shift", size, LayerSpec{
		Kind:       KindConv2D,
		Kernel:     1,
		In:         1,
		Out:        2,
		Activation: ActivationLinear,
		Weights:    []float64{1, -1},
		Bias:       []float64{0, 1},
	})
	require.NoError(t, err)
	return m
}

func rampBatch(n, size int) *colorizer.Tensor {
	batch := colorizer.NewTensor(n, size, size, 1)
	for i := range batch.Data {
		batch.Data[i] = float32(i%(size*size)) / float32(size*size)
	}
	return batch
}

func TestNeutralPredict(t *testing.T) {
	t.Parallel()

	m := Neutral(8)
	out, err := m.Predict(rampBatch(2, 8))
	require.NoError(t, err)
	require.True(t, out.HasShape(2, 8, 8, 2))
	for _, v := range out.Data {
		require.Equal(t, float32(colorizer.NeutralChroma), v)
	}
}

func TestPredictLinearLayer(t *testing.T) {
	t.Parallel()

	m := shiftModel(t, 4)
	in := rampBatch(1, 4)
	out, err := m.Predict(in)
	require.NoError(t, err)
	for j, l := range in.Data {
		assert.InDelta(t, l, out.Data[j*2], 1e-6)
		assert.InDelta(t, 1-l, out.Data[j*2+1], 1e-6)
	}
}

func TestPredictConvolutionPadding(t *testing.T) {
	t.Parallel()

	// 3x3 box sum into a, constant into b. Zero padding shrinks border sums.
	weights := make([]float64, 2*9)
	for i := range 9 {
		weights[i] = 1
	}
	m, err := New("box", 3,
		LayerSpec{Kind: KindConv2D, Kernel: 3, In: 1, Out: 2, Activation: ActivationReLU, Weights: weights, Bias: []float64{0, 0.5}},
	)
	require.NoError(t, err)

	in := colorizer.NewTensor(1, 3, 3, 1)
	for i := range in.Data {
		in.Data[i] = 1
	}
	out, err := m.Predict(in)
	require.NoError(t, err)

	a := make([]float32, 9)
	for j := range 9 {
		a[j] = out.Data[j*2]
		assert.Equal(t, float32(0.5), out.Data[j*2+1])
	}
	assert.Equal(t, []float32{4, 6, 4, 6, 9, 6, 4, 6, 4}, a)
}

func TestPredictStackedLayers(t *testing.T) {
	t.Parallel()

	hidden := LayerSpec{Kind: KindConv2D, Kernel: 3, In: 1, Out: 4, Activation: ActivationTanh,
		Weights: make([]float64, 4*9), Bias: []float64{0.1, -0.2, 0.3, 0}}
	for i := range hidden.Weights {
		hidden.Weights[i] = float64(i%5) / 10
	}
	head := LayerSpec{Kind: KindConv2D, Kernel: 1, In: 4, Out: 2, Activation: ActivationSigmoid,
		Weights: []float64{0.5, -0.5, 0.25, 1, -1, 0.75, 0, 0.2}, Bias: []float64{0, 0}}

	m, err := New("stack", 0, hidden, head)
	require.NoError(t, err)
	out, err := m.Predict(rampBatch(1, 6))
	require.NoError(t, err)
	require.True(t, out.HasShape(1, 6, 6, 2))
	for _, v := range out.Data {
		assert.Greater(t, v, float32(0))
		assert.Less(t, v, float32(1))
	}
}

func TestPredictRejectsBadInput(t *testing.T) {
	t.Parallel()

	m := Neutral(8)
	bad := []*colorizer.Tensor{
		nil,
		colorizer.NewTensor(1, 8, 8, 2),
		colorizer.NewTensor(1, 4, 4, 1),
		colorizer.NewTensor(8, 8, 1),
		{Shape: []int{1, 8, 8, 1}, Data: make([]float32, 3)},
	}
	for _, b := range bad {
		_, err := m.Predict(b)
		assert.ErrorIs(t, err, ErrInputShape, "input %v", b)
	}
}

func TestNewValidatesLayers(t *testing.T) {
	t.Parallel()

	valid := LayerSpec{Kind: KindConv2D, Kernel: 1, In: 1, Out: 2, Weights: []float64{0, 0}, Bias: []float64{0, 0}}
	cases := map[string][]LayerSpec{
		"no layers":       nil,
		"wrong kind":      {{Kind: "dense", Kernel: 1, In: 1, Out: 2, Weights: []float64{0, 0}, Bias: []float64{0, 0}}},
		"even kernel":     {{Kind: KindConv2D, Kernel: 2, In: 1, Out: 2, Weights: make([]float64, 8), Bias: []float64{0, 0}}},
		"weight count":    {{Kind: KindConv2D, Kernel: 1, In: 1, Out: 2, Weights: []float64{0}, Bias: []float64{0, 0}}},
		"bias count":      {{Kind: KindConv2D, Kernel: 1, In: 1, Out: 2, Weights: []float64{0, 0}, Bias: []float64{0}}},
		"activation":      {{Kind: KindConv2D, Kernel: 1, In: 1, Out: 2, Activation: "gelu", Weights: []float64{0, 0}, Bias: []float64{0, 0}}},
		"channel chain":   {valid, valid},
		"three channels":  {{Kind: KindConv2D, Kernel: 1, In: 1, Out: 3, Weights: make([]float64, 3), Bias: make([]float64, 3)}},
		"two input chans": {{Kind: KindConv2D, Kernel: 1, In: 2, Out: 2, Weights: make([]float64, 4), Bias: make([]float64, 2)}},
	}
	for name, specs := range cases {
		_, err := New(name, 8, specs...)
		assert.Error(t, err, name)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	m := shiftModel(t, 4)
	require.NoError(t, m.Compile([]string{MetricPSNR}, DefaultObjects()))
	require.NoError(t, m.Save(dir))

	loaded, err := Load(dir, DefaultObjects())
	require.NoError(t, err)
	assert.Equal(t, "shift", loaded.Name)
	assert.Equal(t, 4, loaded.InputSize)
	assert.Equal(t, []string{MetricPSNR}, loaded.Metrics())

	in := rampBatch(1, 4)
	want, err := m.Predict(in)
	require.NoError(t, err)
	got, err := loaded.Predict(in)
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("loaded model predicts differently (-saved +loaded):\n%s", diff)
	}

	// Loading the file directly works too.
	_, err = Load(filepath.Join(dir, FileName), DefaultObjects())
	assert.NoError(t, err)
}

func TestLoadRequiresCustomObjects(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "colorizer.json")
	m := Neutral(8)
	require.NoError(t, m.Compile([]string{MetricPSNR}, DefaultObjects()))
	require.NoError(t, m.Save(path))

	_, err := Load(path, nil)
	require.ErrorIs(t, err, ErrUnknownObject)
	assert.Contains(t, err.Error(), `"psnr"`)

	_, err = Load(path, CustomObjects{"ssim": colorizer.PSNR})
	assert.ErrorIs(t, err, ErrUnknownObject)

	_, err = Load(path, DefaultObjects())
	assert.NoError(t, err)
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	_, err := Load(filepath.Join(dir, "missing"), DefaultObjects())
	assert.Error(t, err)

	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte("{"), 0644))
	_, err = Load(broken, DefaultObjects())
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`{"name":"x","input_size":8,"layers":[]}`), 0644))
	_, err = Load(empty, DefaultObjects())
	assert.Error(t, err)
}

func TestEvaluate(t *testing.T) {
	t.Parallel()

	m := Neutral(4)
	require.NoError(t, m.Compile([]string{MetricPSNR}, DefaultObjects()))
	x := rampBatch(2, 4)

	// Targets equal to the prediction score +Inf.
	perfect := colorizer.NewTensor(2, 4, 4, 2)
	for i := range perfect.Data {
		perfect.Data[i] = float32(colorizer.NeutralChroma)
	}
	scores, err := m.Evaluate(x, perfect)
	require.NoError(t, err)
	assert.True(t, math.IsInf(scores[MetricPSNR], 1))

	// All-zero targets: every value is off by 128 codes.
	zeros := colorizer.NewTensor(2, 4, 4, 2)
	scores, err = m.Evaluate(x, zeros)
	require.NoError(t, err)
	assert.InDelta(t, 10*math.Log10(255.0*255.0/(128.0*128.0)), scores[MetricPSNR], 1e-9)

	_, err = m.Evaluate(x, colorizer.NewTensor(1, 4, 4, 2))
	assert.ErrorIs(t, err, ErrInputShape)
}

func TestModelAsPredictor(t *testing.T) {
	t.Parallel()

	var p colorizer.Predictor = Neutral(16)
	src, err := colorizer.NewRGB8(2, 2, []uint8{10, 20, 30, 40, 50, 60, 70, 80, 90, 100, 110, 120})
	require.NoError(t, err)
	res, err := colorizer.Reconstruct(src, 16, p)
	require.NoError(t, err)
	assert.Equal(t, 16, res.Predicted.W)

	_, err = colorizer.Reconstruct(src, 32, p)
	assert.ErrorIs(t, err, colorizer.ErrInferenceFailure)
	assert.ErrorIs(t, err, ErrInputShape)
}
