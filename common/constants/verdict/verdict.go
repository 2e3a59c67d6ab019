package verdict

type Verdict string

const (
	AC Verdict = "AC" // Accepted

	WA Verdict = "WA" // Wrong answer
	PE Verdict = "PE" // Presentation error (special judge only)

	TLE Verdict = "TLE" // Time limit exceeded
	RTE Verdict = "RTE" // Runtime error

	CE Verdict = "CE" // Compilation error
	JE Verdict = "JE" // Judge error: infrastructure fault, never a wrong submission
)

// Passed reports whether the test is counted as passed.
func (v Verdict) Passed() bool {
	return v == AC
}
