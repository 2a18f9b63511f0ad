// Package clipboard puts rendered documents on the system clipboard.
package clipboard

import (
	"errors"
	"fmt"

	"github.com/atotto/clipboard"
)

const errorCopyFormat = "copy %d bytes to clipboard: %w"

// ErrUnavailable reports a platform without a usable clipboard utility.
var ErrUnavailable = errors.New("system clipboard is unavailable")

// Copier copies textual data to the system clipboard.
type Copier interface {
	Copy(text string) error
}

// Service implements Copier using github.com/atotto/clipboard.
type Service struct {
	write       func(string) error
	unsupported func() bool
}

// NewService constructs a clipboard service backed by the system clipboard.
func NewService() *Service {
	return &Service{
		write:       clipboard.WriteAll,
		unsupported: func() bool { return clipboard.Unsupported },
	}
}

// Copy writes text to the system clipboard.
func (service *Service) Copy(text string) error {
	if service.unsupported != nil && service.unsupported() {
		return ErrUnavailable
	}
	if err := service.write(text); err != nil {
		return fmt.Errorf(errorCopyFormat, len(text), err)
	}
	return nil
}

var _ Copier = (*Service)(nil)
