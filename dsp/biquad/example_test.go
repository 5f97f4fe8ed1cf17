package biquad_test

import (
	"fmt"

	"github.com/cwbudde/algo-emg/dsp/biquad"
)

func ExampleSection_ProcessSample() {
	s := biquad.NewSection(biquad.Coefficients{
		B0: 0.25, B1: 0.5, B2: 0.25,
		A1: -0.2, A2: 0.04,
	})

	// Impulse response of the section.
	for i := range 4 {
		var x float64
		if i == 0 {
			x = 1
		}

		fmt.Printf("y[%d] = %.4f\n", i, s.ProcessSample(x))
	}
	// Output:
	// y[0] = 0.2500
	// y[1] = 0.5500
	// y[2] = 0.3500
	// y[3] = 0.0480
}

func ExampleChain_ProcessBlock() {
	identity := biquad.Coefficients{B0: 1}
	chain := biquad.NewChain([]biquad.Coefficients{identity, identity})

	buf := []float64{1, 2, 3}
	chain.ProcessBlock(buf)

	fmt.Println(buf)
	// Output:
	// [1 2 3]
}
