package alipay

import (
	"bytes"
	"crypto/rsa"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

// Response is one parsed OpenAPI response envelope
type Response struct {
	Code    string `json:"code"`
	Msg     string `json:"msg"`
	SubCode string `json:"sub_code"`
	SubMsg  string `json:"sub_msg"`

	// Body is the full response body exactly as received from the gateway
	Body string `json:"-"`
	// Node is the raw JSON of the <method>_response object
	Node json.RawMessage `json:"-"`
}

// IsSuccess reports whether the platform accepted the request.
// 10000 is the OpenAPI success code.
func (r *Response) IsSuccess() bool {
	return r.Code == "10000"
}

// HasField reports whether the response node carries the named top-level key
func (r *Response) HasField(name string) bool {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(r.Node, &m); err != nil {
		return false
	}
	_, ok := m[name]
	return ok
}

// parseResponse decodes a gateway response body for the given method and,
// when the body carries a sign field, verifies it against the platform key.
// Verification covers the response node's raw bytes as they appeared on the
// wire, not a re-serialization.
func parseResponse(method string, body []byte, platformKey *rsa.PublicKey) (*Response, error) {
	nodeKey := strings.ReplaceAll(method, ".", "_") + "_response"

	var outer map[string]json.RawMessage
	if err := json.Unmarshal(body, &outer); err != nil {
		return nil, errors.Wrap(err, "decode gateway response")
	}

	node, ok := outer[nodeKey]
	if !ok {
		// the gateway answers error_response when the request never reached
		// the business method (bad app_id, broken signature, ...)
		if node, ok = outer["error_response"]; !ok {
			return nil, errors.Errorf("gateway response has no %s node", nodeKey)
		}
		nodeKey = "error_response"
	}

	if rawSign, ok := outer["sign"]; ok && platformKey != nil {
		var signB64 string
		if err := json.Unmarshal(rawSign, &signB64); err != nil {
			return nil, errors.Wrap(err, "decode sign field")
		}
		signed, ok := responseNodeRaw(body, nodeKey)
		if !ok {
			return nil, errors.Errorf("cannot locate %s node for signature verification", nodeKey)
		}
		if err := verifyRSA2(platformKey, signed, signB64); err != nil {
			return nil, err
		}
	}

	resp := &Response{Body: string(body), Node: node}
	if err := json.Unmarshal(node, resp); err != nil {
		return nil, errors.Wrap(err, "decode response node")
	}
	return resp, nil
}

// responseNodeRaw extracts the exact byte range of the named node's JSON
// object from the body. The platform signs these bytes verbatim, so they must
// come from the wire form rather than a decode/encode round trip.
func responseNodeRaw(body []byte, nodeKey string) ([]byte, bool) {
	idx := bytes.Index(body, []byte(`"`+nodeKey+`"`))
	if idx < 0 {
		return nil, false
	}
	start := bytes.IndexByte(body[idx:], '{')
	if start < 0 {
		return nil, false
	}
	start += idx

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(body); i++ {
		c := body[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return body[start : i+1], true
			}
		}
	}
	return nil, false
}
