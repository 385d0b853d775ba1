package akaifat

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// errorList accumulates independent validation failures so a caller sees
// every problem in one pass instead of just the first one hit — used for
// boot-sector field validation and for cross-checking redundant FAT copies
// against copy 0.
type errorList struct {
	merr *multierror.Error
}

func (l *errorList) add(err error) {
	l.merr = multierror.Append(l.merr, err)
}

func (l *errorList) addf(format string, args ...interface{}) {
	l.add(fmt.Errorf(format, args...))
}

// err returns nil if nothing was added, or the accumulated multierror.Error
// otherwise.
func (l *errorList) err() error {
	if l.merr == nil {
		return nil
	}
	return l.merr.ErrorOrNil()
}
