package output

import (
	"fmt"
	"image"
)

type TargetKind int

const (
	Clipboard TargetKind = iota
	File
)

func (k TargetKind) String() string {
	if k == File {
		return "file"
	}
	return "clipboard"
}

// Target names where a confirmed capture goes. Path is a file or a
// directory for File targets and ignored otherwise.
type Target struct {
	Kind TargetKind
	Path string
}

func (t Target) String() string {
	if t.Kind == File {
		return fmt.Sprintf("file(%s)", t.Path)
	}
	return t.Kind.String()
}

// Request is built once per session when the selection is confirmed.
type Request struct {
	Image  *image.RGBA
	Target Target
	// Rect is the selection in capture space, Desktop the same area in
	// desktop coordinates.
	Rect    image.Rectangle
	Desktop image.Rectangle
}
