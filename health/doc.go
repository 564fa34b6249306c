// Package health learns per-channel "healthy" spectral baselines from
// vibration recordings and scores new recordings against them.
//
// A [Profile] maps channel names to a [Channel], which always holds a
// [SpectrumSignature] (unit-sum normalised reference power on a fixed
// frequency grid) and optionally a [FeatureSignature] (band powers plus
// spectral entropy). Distances are Euclidean, so d(x, x) = 0, d is
// symmetric and never negative.
//
// Profiles are built once by [Train], are read-only afterwards and may be
// scored from many goroutines. The analysis [Convention] used for training
// travels with the profile and is re-applied when recordings are scored.
// Turning distances into verdicts is left to the caller.
package health
