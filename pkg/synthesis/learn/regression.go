package learn

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// fitResult carries the point estimates, confidence intervals and fit
// diagnostics of one template regression. Intervals are only meaningful for
// the parameters the form actually frees.
type fitResult struct {
	a, b       float64
	aLo, aHi   float64
	bLo, bHi   float64
	sigma      float64 // residual standard deviation
	pFit       float64 // lack-of-fit p-value; high means the model fits
	n          int
}

// residTolerance is the noise scale (in layout units) residuals are
// standardized by for the lack-of-fit test. One pixel of slack.
const residTolerance = 1.0

// tQuantile returns the two-sided Student-t critical value for confidence
// level (1 - alpha) with df degrees of freedom.
func tQuantile(alpha float64, df int) float64 {
	if df < 1 {
		df = 1
	}
	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(df)}
	return t.Quantile(1 - alpha/2)
}

// lackOfFitP converts a residual sum of squares into a p-value under a
// chi-squared noise model with the given degrees of freedom: near-zero
// residuals give p close to 1, residuals far beyond the tolerance drive p
// to 0.
func lackOfFitP(sse float64, df int) float64 {
	if df < 1 {
		df = 1
	}
	chi := distuv.ChiSquared{K: float64(df)}
	return 1 - chi.CDF(sse/(residTolerance*residTolerance))
}

// fitConstant estimates y = b.
func fitConstant(y []float64, alpha float64) (fitResult, error) {
	n := len(y)
	if n < 2 {
		return fitResult{}, fmt.Errorf("constant fit needs at least 2 points, got %d", n)
	}
	mean := stat.Mean(y, nil)
	sd := stat.StdDev(y, nil)

	var sse float64
	for _, v := range y {
		sse += (v - mean) * (v - mean)
	}

	se := sd / math.Sqrt(float64(n))
	t := tQuantile(alpha, n-1)
	return fitResult{
		b: mean, bLo: mean - t*se, bHi: mean + t*se,
		sigma: sd,
		pFit:  lackOfFitP(sse, n-1),
		n:     n,
	}, nil
}

// fitAddOnly estimates y = x + b by fitting the constant b to y - x.
func fitAddOnly(x, y []float64, alpha float64) (fitResult, error) {
	if len(x) != len(y) {
		return fitResult{}, fmt.Errorf("mismatched sample lengths %d and %d", len(x), len(y))
	}
	d := make([]float64, len(y))
	for i := range y {
		d[i] = y[i] - x[i]
	}
	res, err := fitConstant(d, alpha)
	if err != nil {
		return fitResult{}, err
	}
	res.a = 1
	return res, nil
}

// fitMulOnly estimates y = a·x as a line through the origin.
func fitMulOnly(x, y []float64, alpha float64) (fitResult, error) {
	n := len(x)
	if n != len(y) {
		return fitResult{}, fmt.Errorf("mismatched sample lengths %d and %d", n, len(y))
	}
	if n < 2 {
		return fitResult{}, fmt.Errorf("ratio fit needs at least 2 points, got %d", n)
	}

	var sxx, sxy float64
	for i := range x {
		sxx += x[i] * x[i]
		sxy += x[i] * y[i]
	}
	if sxx == 0 {
		return fitResult{}, fmt.Errorf("zero-variance x in ratio fit")
	}
	a := sxy / sxx

	var sse float64
	for i := range x {
		r := y[i] - a*x[i]
		sse += r * r
	}
	df := n - 1
	sigma := math.Sqrt(sse / float64(df))
	se := sigma / math.Sqrt(sxx)
	t := tQuantile(alpha, df)

	return fitResult{
		a: a, aLo: a - t*se, aHi: a + t*se,
		sigma: sigma,
		pFit:  lackOfFitP(sse, df),
		n:     n,
	}, nil
}

// fitGeneral estimates y = a·x + b by ordinary least squares.
func fitGeneral(x, y []float64, aAlpha, bAlpha float64) (fitResult, error) {
	n := len(x)
	if n != len(y) {
		return fitResult{}, fmt.Errorf("mismatched sample lengths %d and %d", n, len(y))
	}
	if n < 3 {
		return fitResult{}, fmt.Errorf("general fit needs at least 3 points, got %d", n)
	}

	b, a := stat.LinearRegression(x, y, nil, false)
	if math.IsNaN(a) || math.IsNaN(b) {
		return fitResult{}, fmt.Errorf("degenerate general fit")
	}

	xMean := stat.Mean(x, nil)
	var sxx, sse float64
	for i := range x {
		sxx += (x[i] - xMean) * (x[i] - xMean)
		r := y[i] - (a*x[i] + b)
		sse += r * r
	}
	if sxx == 0 {
		return fitResult{}, fmt.Errorf("zero-variance x in general fit")
	}

	df := n - 2
	sigma := math.Sqrt(sse / float64(df))
	seA := sigma / math.Sqrt(sxx)
	seB := sigma * math.Sqrt(1/float64(n)+xMean*xMean/sxx)
	tA := tQuantile(aAlpha, df)
	tB := tQuantile(bAlpha, df)

	return fitResult{
		a: a, aLo: a - tA*seA, aHi: a + tA*seA,
		b: b, bLo: b - tB*seB, bHi: b + tB*seB,
		sigma: sigma,
		pFit:  lackOfFitP(sse, df),
		n:     n,
	}, nil
}
