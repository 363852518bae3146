package transform

import (
	"fmt"
	"strings"
)

// Method is the resampling method of an Engine.
type Method int

// Only Nearest resamples differently today; the other methods are accepted
// and resample with nearest until implemented.
const (
	Nearest Method = iota
	Bilinear
	Cubic
	Cressman
	Uniform
	Inverse
)

var methodNames = [...]string{"nearest", "bilinear", "cubic", "cressman", "uniform", "inverse"}

func (m Method) String() string {
	if m.valid() {
		return methodNames[m]
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

func (m Method) valid() bool { return m >= Nearest && m <= Inverse }

// ParseMethod maps a method name to a Method.
func ParseMethod(s string) (Method, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range methodNames {
		if s == name {
			return Method(i), nil
		}
	}
	return Nearest, fmt.Errorf("%w: unknown method %q", ErrInvalidArgument, s)
}
