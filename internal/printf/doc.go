// Package printf scans CUDA-style printf format strings and resolves each
// conversion to the fixed-width wire type the device runtime
// expects in the packed argument record.
//
// Accepted grammar:
//
//	%[flags][width][.precision][size]type
//
//	flags     any of "-+0 #", repeated in any order
//	width     decimal digits ("*" is rejected)
//	precision "." followed by decimal digits (".*" is rejected)
//	size      "h", "l" or "ll" (only a single "h" is recognised)
//	type      one of "cdiouxXpeEfFgGaAs"
//
// "%%" is a literal percent sign and produces no conversion. Scanning is
// lazy: Scanner.Next yields one resolved ConversionSpec at a time and stops
// for good on the first error.
package printf
