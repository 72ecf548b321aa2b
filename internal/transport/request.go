package transport

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/periodo/reconciler/pkg/errors"
)

// ReadBody reads and closes the response body. Any status other than 200
// becomes a ServiceError carrying the status code and body.
func ReadBody(resp *http.Response) ([]byte, error) {
	defer func() { _ = resp.Body.Close() }()

	endpoint := ""
	if resp.Request != nil {
		endpoint = redact(resp.Request.URL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errors.ServiceError{Endpoint: endpoint, StatusCode: resp.StatusCode, Err: errors.WrapIO("read", "response body", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errors.NewServiceError(endpoint, resp.StatusCode, string(body))
	}

	return body, nil
}

// DecodeResponse decodes a JSON response into the target structure. A body
// that does not decode is a ProtocolError.
func DecodeResponse(resp *http.Response, target any) error {
	body, err := ReadBody(resp)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, target); err != nil {
		endpoint := ""
		if resp.Request != nil {
			endpoint = redact(resp.Request.URL)
		}
		return errors.NewProtocolError(endpoint, "", "response is not valid JSON for the expected shape", errors.WrapParse("json", "response", err))
	}

	return nil
}
