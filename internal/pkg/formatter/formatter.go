package formatter

import (
	"fmt"

	"github.com/opmgt/beergame-coach/internal/entity"
)

const baseTitle = "Beer Game coaching transcript"

// Formatter renders a session transcript into one download format.
type Formatter interface {
	Format(transcript *entity.Transcript) ([]byte, error)
	ContentType() string
	FileExtension() string
}

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Create(format entity.ResultFormat) (Formatter, error) {
	switch format {
	case entity.FormatCSV:
		return NewCSVFormatter(), nil
	case entity.FormatMarkdown:
		return NewMarkdownFormatter(), nil
	case entity.FormatPDF:
		return NewPDFFormatter(), nil
	case entity.FormatDOCX:
		return NewDOCXFormatter(), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}
