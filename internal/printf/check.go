package printf

// MaxArgs is the number of arguments the device runtime accepts besides the
// format string.
const MaxArgs = 32

const (
	TooManyArgsMsg  = "cuda printf can accept at most 32 arguments in addition to the format string"
	TooManyArgsLink = "https://docs.nvidia.com/cuda/cuda-c-programming-guide/index.html#limitations"
)

// Result is the outcome of a successful Check.
type Result struct {
	Specs []ConversionSpec
	Types []WireType
	// TooManyArgs is set when the call exceeds limit arguments. It is an
	// advisory; code is still generated.
	TooManyArgs bool
}

// Check scans format and validates it against nargs arguments using the
// default MaxArgs advisory limit.
func Check(format string, nargs int) (Result, error) {
	return CheckLimit(format, nargs, MaxArgs)
}

// CheckLimit is Check with a configurable advisory limit; limit <= 0
// disables the advisory.
func CheckLimit(format string, nargs, limit int) (Result, error) {
	specs, err := Scan(format)
	if err != nil {
		return Result{}, err
	}
	if len(specs) != nargs {
		return Result{}, &ArityError{Want: len(specs), Got: nargs}
	}
	return Result{
		Specs:       specs,
		Types:       Types(specs),
		TooManyArgs: limit > 0 && nargs > limit,
	}, nil
}
