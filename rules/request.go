package rules

import (
	"fmt"
	"math/bits"
	"net/netip"
	"strings"

	"github.com/AdguardTeam/adblock/internal/ufnet"
	"golang.org/x/net/publicsuffix"
)

// maxURLLength limits the URL length by 4 KiB.  It appears that there can be
// URLs longer than a megabyte, and it makes no sense to go through the whole
// URL.
const maxURLLength = 4 * 1024

// RequestType is the resource types enumeration.  Every request has exactly
// one of these set, rules may hold a mask of several.
type RequestType uint32

const (
	// TypeOther is any other resource type.  $other
	TypeOther RequestType = 1 << iota
	// TypeScript is an executable script (JavaScript, etc).  $script
	TypeScript
	// TypeImage is an image (e.g. IMG elements).  $image
	TypeImage
	// TypeStylesheet is a stylesheet (e.g. STYLE elements).  $stylesheet
	TypeStylesheet
	// TypeObject is a generic plugin-handled object.  $object
	TypeObject
	// TypeDocument is a top-level document (main frame).  $document
	TypeDocument
	// TypeSubdocument is a document contained within another document
	// (IFRAME, FRAME).  $subdocument
	TypeSubdocument
	// TypeRefresh is a timed refresh.  There is no rule keyword for it.
	TypeRefresh
	// TypeXBLBinding is an XBL binding request.  There is no rule keyword
	// for it.
	TypeXBLBinding
	// TypePing is a ping triggered by <a ping> or navigator.sendBeacon().
	// $ping
	TypePing
	// TypeXmlhttprequest is an XMLHttpRequest or fetch.  $xmlhttprequest
	TypeXmlhttprequest
	// TypeObjectSubrequest is a request made by a plugin.
	// $object-subrequest
	TypeObjectSubrequest
)

// requestTypeNames maps the request types to the filter-list keywords.
var requestTypeNames = map[RequestType]string{
	TypeOther:            "other",
	TypeScript:           "script",
	TypeImage:            "image",
	TypeStylesheet:       "stylesheet",
	TypeObject:           "object",
	TypeDocument:         "document",
	TypeSubdocument:      "subdocument",
	TypeRefresh:          "refresh",
	TypeXBLBinding:       "xbl",
	TypePing:             "ping",
	TypeXmlhttprequest:   "xmlhttprequest",
	TypeObjectSubrequest: "object-subrequest",
}

// type check
var _ fmt.Stringer = TypeOther

// String implements the [fmt.Stringer] interface for RequestType.  Masks with
// several types are joined with "|".
func (t RequestType) String() (s string) {
	if name, ok := requestTypeNames[t]; ok {
		return name
	}

	var names []string
	for i := range 32 {
		flag := RequestType(1 << i)
		if t&flag == 0 {
			continue
		}

		if name, ok := requestTypeNames[flag]; ok {
			names = append(names, name)
		}
	}

	if len(names) == 0 {
		return fmt.Sprintf("RequestType(%d)", uint32(t))
	}

	return strings.Join(names, "|")
}

// Count returns the count of the enabled flags.
func (t RequestType) Count() int {
	return bits.OnesCount32(uint32(t))
}

// ParseRequestType returns the request type for the filter-list keyword name.
// "xhr" is accepted as an alias of "xmlhttprequest".
func ParseRequestType(name string) (t RequestType, err error) {
	name = strings.ToLower(name)
	if name == "xhr" {
		return TypeXmlhttprequest, nil
	}

	for t, n := range requestTypeNames {
		if n == name {
			return t, nil
		}
	}

	return 0, fmt.Errorf("unknown request type %q", name)
}

// Request represents a resource load that the host asks about.
type Request struct {
	// URL is the full URL of the resource being requested.
	URL string

	// URLLowerCase is the full request URL in lower case.
	URLLowerCase string

	// Hostname is the lower-cased hostname of URL.
	Hostname string

	// Domain is the effective top-level domain of the request with an
	// additional label.
	Domain string

	// SourceURL is the full URL of the document that makes the request.
	SourceURL string

	// SourceHostname is the lower-cased hostname of the source.
	SourceHostname string

	// SourceDomain is the effective top-level domain of the source with an
	// additional label.
	SourceDomain string

	// RequestType is the type of the requested resource.
	RequestType RequestType

	// ThirdParty is true if the source domain is known and differs from the
	// request domain.
	ThirdParty bool
}

// NewRequest creates a new instance of "Request" and populates it's fields.
func NewRequest(url, sourceURL string, requestType RequestType) *Request {
	if len(url) > maxURLLength {
		url = url[:maxURLLength]
	}
	if len(sourceURL) > maxURLLength {
		sourceURL = sourceURL[:maxURLLength]
	}

	r := Request{
		RequestType: requestType,

		URL:          url,
		URLLowerCase: strings.ToLower(url),
		Hostname:     strings.ToLower(ufnet.ExtractHostname(url)),

		SourceURL:      sourceURL,
		SourceHostname: strings.ToLower(ufnet.ExtractHostname(sourceURL)),
	}

	r.Domain = registrableDomain(r.Hostname)
	r.SourceDomain = registrableDomain(r.SourceHostname)
	r.ThirdParty = r.SourceDomain != "" && r.SourceDomain != r.Domain

	return &r
}

// registrableDomain returns the eTLD+1 of hostname or hostname itself if
// there is none, e.g. for IP addresses and single-label names.
func registrableDomain(hostname string) (domain string) {
	if _, err := netip.ParseAddr(hostname); err == nil {
		return hostname
	}

	domain = effectiveTLDPlusOne(hostname)
	if domain == "" {
		return hostname
	}

	return domain
}

// effectiveTLDPlusOne is a faster version of publicsuffix.EffectiveTLDPlusOne
// that avoids using fmt.Errorf when the domain is less or equal the suffix.
func effectiveTLDPlusOne(hostname string) (domain string) {
	hostnameLen := len(hostname)
	if hostnameLen < 1 {
		return ""
	}

	if hostname[0] == '.' || hostname[hostnameLen-1] == '.' {
		return ""
	}

	suffix, _ := publicsuffix.PublicSuffix(hostname)

	i := hostnameLen - len(suffix) - 1
	if i < 0 || hostname[i] != '.' {
		return ""
	}

	return hostname[1+strings.LastIndex(hostname[:i], "."):]
}
