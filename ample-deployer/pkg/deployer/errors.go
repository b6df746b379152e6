package deployer

import (
	"errors"
	"fmt"
)

// ErrConfiguration marks invalid flags, network definitions or input files. It is
// always reported before any transaction is sent.
var ErrConfiguration = errors.New("configuration error")

func configErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}
