package output

import (
	"errors"

	"github.com/inodb/vibe-itree/internal/index"
)

// ResultWriter is implemented by every query result writer.
type ResultWriter interface {
	WriteHeader() error
	Write(q *index.Record, hits []index.Hit) error
	Flush() error
}

type teeWriter []ResultWriter

// Tee returns a writer duplicating every call to each of ws. Every writer is
// called even when an earlier one fails; the errors are joined.
func Tee(ws ...ResultWriter) ResultWriter {
	return teeWriter(ws)
}

func (t teeWriter) WriteHeader() error {
	var errs []error
	for _, w := range t {
		errs = append(errs, w.WriteHeader())
	}
	return errors.Join(errs...)
}

func (t teeWriter) Write(q *index.Record, hits []index.Hit) error {
	var errs []error
	for _, w := range t {
		errs = append(errs, w.Write(q, hits))
	}
	return errors.Join(errs...)
}

func (t teeWriter) Flush() error {
	var errs []error
	for _, w := range t {
		errs = append(errs, w.Flush())
	}
	return errors.Join(errs...)
}
