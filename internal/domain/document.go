package domain

import "time"

// Document is one loaded source file with its extracted text.
type Document struct {
	Content  string
	Source   string
	Metadata DocumentMetadata
}

// DocumentMetadata describes where a document came from.
type DocumentMetadata struct {
	Size         int64
	LastModified time.Time
	ContentType  string
	Pages        int
}

// Chunk is an indexable slice of a document.
type Chunk struct {
	ID     string
	Text   string
	Source string
}

// ContainerInfo summarizes a document container.
type ContainerInfo struct {
	Name         string
	TotalObjects int
	PDFObjects   int
	TotalSize    int64
	LastModified time.Time
}
