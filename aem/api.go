package aem

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

const DefaultHost = "http://localhost:4502"

// Server identifies one repository instance for the duration of a run.
type Server struct {
	// Name is the server's identity; it keys the default lock directory.  Defaults to Host.
	Name string
	// Host is the base URL, e.g. http://localhost:4502.  A bare host:port gets http://.
	Host string

	Username, Password string
}

// URL builds the absolute endpoint for a repository path.
func (s Server) URL(p string) (string, error) {
	base, err := s.baseURI()
	if err != nil {
		return "", err
	}
	return base.ResolveReference(&url.URL{Path: p}).String(), nil
}

func (s Server) baseURI() (*url.URL, error) {
	host := s.Host
	if host == "" {
		host = DefaultHost
	}
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}
	u, err := url.ParseRequestURI(host)
	if err != nil {
		return nil, fmt.Errorf("aem: couldn't parse host URL %q: %w", s.Host, err)
	}
	return u, nil
}

// Identity is the name used to tell servers apart on disk.
func (s Server) Identity() string {
	if s.Name != "" {
		return s.Name
	}
	if s.Host != "" {
		return s.Host
	}
	return DefaultHost
}

func NewAPI(server Server) (*API, error) {
	if server.Username == "" {
		return nil, fmt.Errorf("aem: configure your username with --auth-username")
	}

	u, err := server.baseURI()
	if err != nil {
		return nil, err
	}

	a := &API{
		BaseURI: u,
		Server:  server,
	}
	a.Client = &http.Client{}

	return a, nil
}

type API struct {
	// Where the repository lives, e.g. http://localhost:4502
	BaseURI *url.URL

	// An HTTP client - you can substitute VCR or whatnot.  No timeout is configured; the
	// client's defaults apply.
	Client *http.Client

	Server Server

	// Diagnostic output.  slog.Default() when nil.
	Logger *slog.Logger
}

func (api *API) log() *slog.Logger {
	if api.Logger != nil {
		return api.Logger
	}
	return slog.Default()
}
