// Package api - Hauptmodul des imagematch API-Clients.
// Dieses Modul enthaelt die Client-Struktur und Basis-Methoden,
// die API-Methoden liegen in client_api.go.
//
// Package api implements the client-side API for code wishing to interact
// with the imagematch service. The methods of the [Client] type correspond
// to the REST endpoints served by the server package. The imagematch
// command-line client itself uses this package to talk to the server.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"runtime"

	"github.com/7blacky7/imagematch/envconfig"
	"github.com/7blacky7/imagematch/version"
)

// Client encapsulates client state for interacting with the imagematch
// service. Use [ClientFromEnvironment] to create new Clients.
type Client struct {
	base *url.URL
	http *http.Client
}

func checkError(resp *http.Response, body []byte) error {
	if resp.StatusCode < http.StatusBadRequest {
		return nil
	}

	apiError := StatusError{StatusCode: resp.StatusCode, Status: resp.Status}

	var payload struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		// Use the full body as the message if we fail to decode a response.
		apiError.ErrorMessage = string(body)
		return apiError
	}

	apiError.ErrorMessage = payload.Error
	if apiError.ErrorMessage == "" {
		apiError.ErrorMessage = payload.Detail
	}
	return apiError
}

// ClientFromEnvironment creates a new [Client] using configuration from the
// environment variable IMAGEMATCH_HOST, which points to the network host and
// port on which the imagematch service is listening. The format of this
// variable is:
//
//	<scheme>://<host>:<port>
//
// If the variable is not specified, a default host and port will be used.
func ClientFromEnvironment() (*Client, error) {
	return &Client{
		base: envconfig.Host(),
		http: http.DefaultClient,
	}, nil
}

func NewClient(base *url.URL, http *http.Client) *Client {
	return &Client{
		base: base,
		http: http,
	}
}

func userAgent() string {
	return fmt.Sprintf("imagematch/%s (%s %s) Go/%s", version.Version, runtime.GOARCH, runtime.GOOS, runtime.Version())
}

func (c *Client) do(ctx context.Context, method, path string, reqData, respData any) error {
	var reqBody io.Reader
	contentType := "application/json"

	switch reqData := reqData.(type) {
	case *multipartBody:
		reqBody = reqData.buf
		contentType = reqData.contentType
	case nil:
		// noop
	default:
		data, err := json.Marshal(reqData)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(data)
	}

	_, err := c.send(ctx, method, path, reqBody, contentType, respData)
	return err
}

func (c *Client) send(ctx context.Context, method, path string, body io.Reader, contentType string, respData any) (http.Header, error) {
	requestURL := c.base.JoinPath(path)
	request, err := http.NewRequestWithContext(ctx, method, requestURL.String(), body)
	if err != nil {
		return nil, err
	}

	if body != nil {
		request.Header.Set("Content-Type", contentType)
	}
	request.Header.Set("Accept", "application/json")
	request.Header.Set("User-Agent", userAgent())

	respObj, err := c.http.Do(request)
	if err != nil {
		return nil, err
	}
	defer respObj.Body.Close()

	respBody, err := io.ReadAll(respObj.Body)
	if err != nil {
		return nil, err
	}

	if err := checkError(respObj, respBody); err != nil {
		return nil, err
	}

	if len(respBody) > 0 && respData != nil {
		if err := json.Unmarshal(respBody, respData); err != nil {
			return nil, err
		}
	}
	return respObj.Header, nil
}

// multipartBody is a fully buffered multipart/form-data request body.
type multipartBody struct {
	buf         *bytes.Buffer
	contentType string
}

type formFile struct {
	field, name string
	data        []byte
}

func newMultipart(fields map[string]string, files ...formFile) (*multipartBody, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, f := range files {
		part, err := w.CreateFormFile(f.field, f.name)
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(f.data); err != nil {
			return nil, err
		}
	}

	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, err
		}
	}

	if err := w.Close(); err != nil {
		return nil, err
	}

	return &multipartBody{buf: &buf, contentType: w.FormDataContentType()}, nil
}
