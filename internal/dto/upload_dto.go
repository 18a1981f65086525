package dto

// UploadResponse describes a stored attachment. FileURL is the public URL
// and ObjectKey the stored key; the signer accepts either form.
type UploadResponse struct {
	FileURL   string `json:"file_url"`
	ObjectKey string `json:"object_key"`
	FileName  string `json:"file_name"`
	MimeType  string `json:"mime_type"`
	SizeBytes int64  `json:"size_bytes"`
	Checksum  string `json:"checksum"`
}
