package app

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/deploymenttheory/go-fsrip/internal/disk"
	"github.com/deploymenttheory/go-fsrip/internal/interfaces"
)

// OpenImage opens the walker for target, wrapping failures as IMAGE_ACCESS
func OpenImage(ctx *Context, target ImageTarget) (interfaces.ImageWalker, error) {
	walker, err := disk.Open(target.Paths, target.Walker, ctx.Fs, ctx.Logger)
	if err != nil {
		return nil, NewError(ErrCodeImageAccess, "failed to open image", err)
	}
	return walker, nil
}

// NumberPrinter groups digits in table output
func NumberPrinter() *message.Printer {
	return message.NewPrinter(language.English)
}
