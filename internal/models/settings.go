package models

// SMTPSettings holds the server's outgoing-mail configuration (admin only).
type SMTPSettings struct {
	Host     string `json:"smtp_host"`
	Port     int    `json:"smtp_port"`
	User     string `json:"smtp_user"`
	Password string `json:"smtp_pass"`
}

// UploadResult is returned by the file upload endpoint.
type UploadResult struct {
	URL          string  `json:"url"`
	ThumbnailURL *string `json:"thumbnail_url,omitempty"`
}
