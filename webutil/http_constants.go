package webutil

const (
	// Header Keys
	HeaderContentType        = "Content-Type"
	HeaderContentDisposition = "Content-Disposition"
	HeaderAuthorization      = "Authorization"
	HeaderCacheControl       = "Cache-Control"

	// Content Types
	ContentTypeJSONUTF8 = "application/json; charset=utf-8"

	BearerPrefix = "Bearer "
)
