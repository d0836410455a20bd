package models

import "io"

// Upload is an image file received from a client
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Reader      io.Reader
}
