package storage

import (
	"context"
	"io"
)

// Upload carries the bytes and metadata of a single media file.
type Upload struct {
	Body        io.Reader
	Filename    string
	ContentType string
	Size        int64
}

// MediaStore uploads media assets to external storage and returns a public
// URL. Handlers never touch filesystem paths; the bytes go straight through.
type MediaStore interface {
	Store(ctx context.Context, up Upload) (string, error)
}
