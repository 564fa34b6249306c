package window

import "fmt"

func ExampleDescribe() {
	m, err := Describe(TypeHann, 1024, WithPeriodic())
	if err != nil {
		panic(err)
	}
	fmt.Printf("%s enbw=%.3f coherent=%.3f power=%.3f\n", m.Name, m.ENBW, m.CoherentGain, m.PowerGain)
	// Output:
	// Hann enbw=1.500 coherent=0.500 power=0.375
}

func ExampleApplyCoefficientsInPlace() {
	frame := []float64{2, 2, 2, 2, 2}
	if err := ApplyCoefficientsInPlace(frame, Generate(TypeHann, len(frame))); err != nil {
		panic(err)
	}
	fmt.Printf("%.2f\n", frame)
	// Output:
	// [0.00 1.00 2.00 1.00 0.00]
}

func ExampleParseType() {
	for _, name := range []string{"Hanning", " flat-top ", "boxcar"} {
		t, err := ParseType(name)
		if err != nil {
			panic(err)
		}
		fmt.Printf("%q -> %s\n", name, t)
	}
	// Output:
	// "Hanning" -> hann
	// " flat-top " -> flattop
	// "boxcar" -> rectangular
}
