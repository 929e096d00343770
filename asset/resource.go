package asset

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var (
	ErrUnsupportedScheme = errors.New("resource: unsupported scheme")
)

// The client used for fetching remote resources.
var httpClient = &http.Client{
	Timeout: 30 * time.Second,
}

// The Resource class wraps a streamable file or remote Resource.
type Resource struct {
	io.ReadCloser
	url *url.URL
}

// Returns the path to this resource.
func (r *Resource) Path() string {
	return r.url.String()
}

// Returns the base name of this resource without its extension. Mesh
// readers use it to name meshes that do not define a name.
func (r *Resource) Name() string {
	base := filepath.Base(r.url.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Returns true if the Resource is streamed over http/https.
func (r *Resource) IsRemote() bool {
	return r.url.Scheme != ""
}

// Open a model resource. Paths without a scheme are local files; http and
// https URLs are fetched so that models can be compiled straight from an
// asset server. If relTo is set, relative paths resolve against the
// directory of relTo, which is how OBJ "call" includes locate their files.
//
// The caller must close the returned Resource.
func NewResource(pathToResource string, relTo *Resource) (*Resource, error) {
	resURL, err := resolveURL(pathToResource, relTo)
	if err != nil {
		return nil, err
	}

	reader, err := openURL(resURL)
	if err != nil {
		return nil, err
	}
	return &Resource{ReadCloser: reader, url: resURL}, nil
}

// Parse path as a URL and resolve it against relTo if it has no scheme.
func resolveURL(path string, relTo *Resource) (*url.URL, error) {
	// Windows-style separators are normalized before parsing
	resURL, err := url.Parse(strings.ReplaceAll(path, `\`, `/`))
	if err != nil || resURL.Scheme != "" || relTo == nil {
		return resURL, err
	}

	base := *relTo.url
	dir := base.Path
	if base.Scheme == "" {
		if dir, err = filepath.Abs(relTo.url.String()); err != nil {
			return nil, fmt.Errorf("resource: could not detect abs path for %s: %w", relTo.url.String(), err)
		}
	}
	base.Path = filepath.Dir(dir) + "/" + resURL.Path
	return &base, nil
}

// Open a stream for a resolved URL.
func openURL(resURL *url.URL) (io.ReadCloser, error) {
	switch resURL.Scheme {
	case "":
		return os.Open(filepath.Clean(resURL.Path))
	case "http", "https":
		resp, err := httpClient.Get(resURL.String())
		if err != nil {
			return nil, fmt.Errorf("resource: could not fetch '%s': %w", resURL.String(), err)
		}
		if resp.StatusCode >= 400 {
			resp.Body.Close()
			return nil, fmt.Errorf("resource: could not fetch '%s': status %d", resURL.String(), resp.StatusCode)
		}
		return resp.Body, nil
	}
	return nil, fmt.Errorf("%w '%s'", ErrUnsupportedScheme, resURL.Scheme)
}

// Create a resource from a reader.
func NewResourceFromStream(name string, source io.Reader) *Resource {
	resURL, _ := url.Parse(name)
	return &Resource{
		ReadCloser: io.NopCloser(source),
		url:        resURL,
	}
}
