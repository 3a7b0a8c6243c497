package domain

// StoredFile describes an uploaded file.
type StoredFile struct {
	Name        string
	URL         string
	ContentType string
	Size        int64
}
