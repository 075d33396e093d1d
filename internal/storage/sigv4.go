package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	signingAlgorithm = "AWS4-HMAC-SHA256"
	signingService   = "s3"

	amzDateLayout   = "20060102T150405Z"
	dateStampLayout = "20060102"
)

// Signer produces AWS Signature Version 4 authorization material for
// object store requests.
type Signer struct {
	accessKey string
	secretKey string
	region    string
	now       func() time.Time
}

// NewSigner returns a signer for the given credentials and region.
func NewSigner(accessKey, secretKey, region string) *Signer {
	return &Signer{
		accessKey: accessKey,
		secretKey: secretKey,
		region:    region,
		now:       time.Now,
	}
}

// SignedRequest carries the target URL and the headers that authorize a
// single request.
type SignedRequest struct {
	URL     string
	Headers map[string]string
}

// Sign computes signature headers for a request with a fully known payload.
// The signed header set is content-type, host, x-amz-content-sha256, and
// x-amz-date; the payload hash binds the body to the signature.
func (s *Signer) Sign(method, rawURL string, payload []byte, contentType string) (*SignedRequest, error) {
	target, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse request url: %w", err)
	}

	now := s.now().UTC()
	amzDate := now.Format(amzDateLayout)
	dateStamp := now.Format(dateStampLayout)

	payloadHash := sha256Hex(payload)
	canonicalHeaders := "content-type:" + contentType + "\n" +
		"host:" + target.Host + "\n" +
		"x-amz-content-sha256:" + payloadHash + "\n" +
		"x-amz-date:" + amzDate + "\n"
	const signedHeaders = "content-type;host;x-amz-content-sha256;x-amz-date"

	// The canonical path must be the percent-encoded form actually sent
	// on the wire, not the decoded url.Path.
	canonicalRequest := strings.Join([]string{
		method,
		target.EscapedPath(),
		"",
		canonicalHeaders,
		signedHeaders,
		payloadHash,
	}, "\n")

	credentialScope := dateStamp + "/" + s.region + "/" + signingService + "/aws4_request"
	stringToSign := strings.Join([]string{
		signingAlgorithm,
		amzDate,
		credentialScope,
		sha256Hex([]byte(canonicalRequest)),
	}, "\n")

	signature := hmacHex(s.signingKey(dateStamp), stringToSign)

	return &SignedRequest{
		URL: target.String(),
		Headers: map[string]string{
			"Content-Type":         contentType,
			"x-amz-date":           amzDate,
			"x-amz-content-sha256": payloadHash,
			"Authorization": fmt.Sprintf("%s Credential=%s/%s, SignedHeaders=%s, Signature=%s",
				signingAlgorithm, s.accessKey, credentialScope, signedHeaders, signature),
		},
	}, nil
}

// Presign returns a URL that authorizes a PUT of the given content type
// until expires elapses. The payload is unsigned so browsers can upload
// directly without the daemon seeing the bytes.
func (s *Signer) Presign(rawURL, contentType string, expires time.Duration) (string, error) {
	target, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse presign url: %w", err)
	}
	if expires <= 0 {
		return "", fmt.Errorf("presign expiry must be positive, got %s", expires)
	}

	now := s.now().UTC()
	amzDate := now.Format(amzDateLayout)
	dateStamp := now.Format(dateStampLayout)

	credentialScope := dateStamp + "/" + s.region + "/" + signingService + "/aws4_request"
	credential := s.accessKey + "/" + credentialScope

	// Parameter names are already in canonical (lexicographic) order.
	queryPairs := [][2]string{
		{"X-Amz-Algorithm", signingAlgorithm},
		{"X-Amz-Credential", credential},
		{"X-Amz-Date", amzDate},
		{"X-Amz-Expires", fmt.Sprintf("%d", int(expires.Seconds()))},
		{"X-Amz-SignedHeaders", "content-type;host"},
	}
	encoded := make([]string, 0, len(queryPairs))
	for _, pair := range queryPairs {
		encoded = append(encoded, uriEncode(pair[0])+"="+uriEncode(pair[1]))
	}
	canonicalQuery := strings.Join(encoded, "&")

	canonicalRequest := strings.Join([]string{
		"PUT",
		target.EscapedPath(),
		canonicalQuery,
		"content-type:" + contentType + "\nhost:" + target.Host + "\n",
		"content-type;host",
		"UNSIGNED-PAYLOAD",
	}, "\n")

	stringToSign := strings.Join([]string{
		signingAlgorithm,
		amzDate,
		credentialScope,
		sha256Hex([]byte(canonicalRequest)),
	}, "\n")

	signature := hmacHex(s.signingKey(dateStamp), stringToSign)

	return target.String() + "?" + canonicalQuery + "&X-Amz-Signature=" + signature, nil
}

// signingKey derives the per-day key through the HMAC chain
// AWS4+secret -> date -> region -> service -> aws4_request.
func (s *Signer) signingKey(dateStamp string) []byte {
	kDate := hmacSHA256([]byte("AWS4"+s.secretKey), dateStamp)
	kRegion := hmacSHA256(kDate, s.region)
	kService := hmacSHA256(kRegion, signingService)
	return hmacSHA256(kService, "aws4_request")
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func hmacSHA256(key []byte, data string) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(data))
	return mac.Sum(nil)
}

func hmacHex(key []byte, data string) string {
	return hex.EncodeToString(hmacSHA256(key, data))
}

func uriEncode(value string) string {
	return strings.ReplaceAll(url.QueryEscape(value), "+", "%20")
}
