package httpfilter

import (
	"net/http"
	"path"
	"strings"

	"github.com/AdguardTeam/adblock/rules"
)

// assumeRequestType assumes the request type from what is known before the
// response: the Sec-Fetch-Dest header, then the Accept header, and finally the
// extension in the URL path.
func assumeRequestType(req *http.Request) (t rules.RequestType) {
	t, ok := fetchDestTypes[strings.ToLower(req.Header.Get("Sec-Fetch-Dest"))]
	if ok {
		return t
	}

	t = assumeRequestTypeFromMediaType(req.Header.Get("Accept"))
	if t != rules.TypeOther {
		return t
	}

	return assumeRequestTypeFromPath(req.URL.Path)
}

// fetchDestTypes maps the values of the Sec-Fetch-Dest header to the request
// types.  "empty" is what fetch and XMLHttpRequest send.
var fetchDestTypes = map[string]rules.RequestType{
	"audioworklet":  rules.TypeScript,
	"document":      rules.TypeDocument,
	"embed":         rules.TypeObject,
	"empty":         rules.TypeXmlhttprequest,
	"frame":         rules.TypeSubdocument,
	"iframe":        rules.TypeSubdocument,
	"image":         rules.TypeImage,
	"object":        rules.TypeObject,
	"paintworklet":  rules.TypeScript,
	"report":        rules.TypePing,
	"script":        rules.TypeScript,
	"serviceworker": rules.TypeScript,
	"sharedworker":  rules.TypeScript,
	"style":         rules.TypeStylesheet,
	"worker":        rules.TypeScript,
	"xslt":          rules.TypeStylesheet,
}

// assumeRequestTypeFromMediaType tries to detect the request type from the
// specified media type or Accept header value.
func assumeRequestTypeFromMediaType(mediaType string) (t rules.RequestType) {
	switch {
	case
		strings.HasPrefix(mediaType, "application/xhtml"),
		strings.HasPrefix(mediaType, "text/html"):
		return rules.TypeDocument
	case strings.HasPrefix(mediaType, "text/css"):
		return rules.TypeStylesheet
	case
		strings.HasPrefix(mediaType, "application/javascript"),
		strings.HasPrefix(mediaType, "application/x-javascript"),
		strings.HasPrefix(mediaType, "text/javascript"):
		return rules.TypeScript
	case strings.HasPrefix(mediaType, "image/"):
		return rules.TypeImage
	case strings.HasPrefix(mediaType, "application/x-shockwave-flash"):
		return rules.TypeObject
	case strings.HasPrefix(mediaType, "application/json"):
		return rules.TypeXmlhttprequest
	default:
		return rules.TypeOther
	}
}

// fileExtensions maps the file extensions to the request types.
var fileExtensions = map[string]rules.RequestType{
	// $script
	".js":     rules.TypeScript,
	".mjs":    rules.TypeScript,
	".vbs":    rules.TypeScript,
	".coffee": rules.TypeScript,
	// $image
	".jpg":  rules.TypeImage,
	".jpeg": rules.TypeImage,
	".gif":  rules.TypeImage,
	".png":  rules.TypeImage,
	".webp": rules.TypeImage,
	".svg":  rules.TypeImage,
	".tiff": rules.TypeImage,
	".psd":  rules.TypeImage,
	".ico":  rules.TypeImage,
	// $stylesheet
	".css":  rules.TypeStylesheet,
	".less": rules.TypeStylesheet,
	// $object
	".jar": rules.TypeObject,
	".swf": rules.TypeObject,
	// $xmlhttprequest
	".json": rules.TypeXmlhttprequest,
}

// assumeRequestTypeFromPath assumes the request type from the file extension
// of the URL path.
func assumeRequestTypeFromPath(p string) (t rules.RequestType) {
	t, ok := fileExtensions[strings.ToLower(path.Ext(p))]
	if !ok {
		return rules.TypeOther
	}

	return t
}
